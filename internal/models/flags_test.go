package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"sim", true, false},
		{"SIM", true, false},
		{"s", true, false},
		{"yes", true, false},
		{"true", true, false},
		{"1", true, false},
		{"urgente", true, false},
		{"não", false, false},
		{"nao", false, false},
		{"n", false, false},
		{"no", false, false},
		{"false", false, false},
		{"0", false, false},
		{"normal", false, false},
		{"  Sim  ", true, false},
		{"", false, false},
		{"talvez", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseYesNo(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFlag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
		wantErr bool
	}{
		{"bool true", `{"urgent": true}`, true, false},
		{"bool false", `{"urgent": false}`, false, false},
		{"string sim", `{"urgent": "sim"}`, true, false},
		{"string não", `{"urgent": "não"}`, false, false},
		{"number one", `{"urgent": 1}`, true, false},
		{"null", `{"urgent": null}`, false, false},
		{"missing", `{}`, false, false},
		{"unknown string", `{"urgent": "maybe"}`, false, true},
		{"number two", `{"urgent": 2}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Urgent Flag `json:"urgent"`
			}
			err := json.Unmarshal([]byte(tt.payload), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Urgent.Bool())
		})
	}
}
