package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain string", `"Screening"`, "Screening"},
		{"null", `null`, ""},
		{"number", `42`, "42"},
		{"lookup object with name", `{"name":"Jane Doe","id":"123"}`, "Jane Doe"},
		{"lookup object with id only", `{"id":"123"}`, "123"},
		{"list of strings", `["English","Portuguese"]`, "English, Portuguese"},
		{"list of lookups", `[{"name":"French"},{"name":"Creole"}]`, "French, Creole"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var v Text
			require.NoError(t, json.Unmarshal([]byte(tt.input), &v))
			assert.Equal(t, tt.expected, v.String())
		})
	}
}

func TestFlagUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"Yes"`, true},
		{`"1"`, true},
		{`"no"`, false},
		{`null`, false},
		{`1`, true},
		{`0`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			var f Flag
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.expected, f.Bool())
		})
	}
}

func TestRawCandidateDecode(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "100234",
		"First_Name": "Maria",
		"Last_Name": "Santos",
		"Lead_Status": "Interview Scheduled",
		"Owner": {"name": "Recruiter One", "id": "555"},
		"Languages": ["Portuguese", "English"],
		"Unresponsive": "true",
		"Created_Time": "2026-02-01T09:30:00+01:00"
	}`

	var raw RawCandidate
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	assert.Equal(t, "100234", raw.ID.String())
	assert.Equal(t, "Interview Scheduled", raw.LeadStatus.String())
	assert.Equal(t, "Recruiter One", raw.Owner.String())
	assert.Equal(t, "Portuguese, English", raw.Languages.String())
	assert.True(t, raw.Unresponsive.Bool())
}
