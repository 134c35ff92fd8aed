// internal/workers/scheduling/schedule-appointment/message.go
package scheduleappointment

import (
	"fmt"
	"strings"

	"fieldservice-workers/internal/models"
)

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

func renderQuote(customer string, tech models.TechnicianScore, equipment []string, zone models.LogisticZone, slots []models.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s! ", firstName(customer))
	fmt.Fprintf(&b, "For your %s (zone %s) we recommend %s.\n", strings.Join(equipment, ", "), zone, tech.Technician.Name)
	b.WriteString("Available times:\n")
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Label())
	}
	b.WriteString("Reply with the option you prefer to confirm your visit.")
	return b.String()
}

func renderNoAvailability(customer string, days int) string {
	return fmt.Sprintf("Hello %s! We could not find a free visit time in the next %d days. "+
		"Please contact us so our team can schedule your visit.", firstName(customer), days)
}

func renderConfirmation(apt *models.Appointment, wo *models.WorkOrder, slot models.Slot) string {
	return fmt.Sprintf("Your visit is confirmed for %s with %s. Work order %s, estimated cost R$ %.2f.",
		slot.Label(), apt.TechnicianName, wo.OrderNumber, wo.EstimatedCost)
}
