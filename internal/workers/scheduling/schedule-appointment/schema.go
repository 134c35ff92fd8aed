// internal/workers/scheduling/schedule-appointment/schema.go
package scheduleappointment

import "fieldservice-workers/internal/common/validation"

// Job variables carry the whole process scope, so unknown keys are allowed.
var inputSchema = validation.MustCompile(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["customerName", "customerPhone", "address", "equipment"],
  "properties": {
    "customerName":  {"type": "string", "minLength": 1},
    "customerPhone": {"type": "string", "minLength": 8},
    "customerEmail": {"type": "string"},
    "address":       {"type": "string", "minLength": 3},
    "equipment": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["equipment"],
        "properties": {
          "equipment":   {"type": "string"},
          "problem":     {"type": "string"},
          "serviceMode": {"type": "string"}
        }
      }
    },
    "urgent":        {"type": ["boolean", "string", "integer", "null"]},
    "preferredDate": {"type": ["string", "null"]},
    "chosenSlot":    {"type": ["string", "null"]},
    "quoteId":       {"type": ["string", "null"]}
  }
}`)
