// internal/models/flags.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFlag = errors.New("INVALID_FLAG")

// ParseYesNo is the single parser for yes/no style request fields.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim", "s", "yes", "y", "true", "1", "urgente":
		return true, nil
	case "não", "nao", "n", "no", "false", "0", "normal", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
}

// Flag is a boolean that also accepts the spellings understood by ParseYesNo.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFlag, string(data))
	}

	switch v := raw.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case float64:
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %v", ErrInvalidFlag, v)
		}
		*f = v == 1
	case string:
		b, err := ParseYesNo(v)
		if err != nil {
			return err
		}
		*f = Flag(b)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidFlag, string(data))
	}
	return nil
}

func (f Flag) Bool() bool {
	return bool(f)
}
