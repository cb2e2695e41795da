package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		s    Severity
		want string
	}{
		{SeverityError, "error"},
		{SeverityWarning, "warning"},
		{SeverityInfo, "info"},
		{Severity(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("Severity.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_JSON(t *testing.T) {
	data, err := json.Marshal(SeverityWarning)
	require.NoError(t, err)
	assert.JSONEq(t, `"warning"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"info"`), &s))
	assert.Equal(t, SeverityInfo, s)

	require.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
}

func TestIssue_Error(t *testing.T) {
	tests := []struct {
		name string
		i    Issue
		want string
	}{
		{
			name: "error with field and value",
			i: Issue{
				Severity: SeverityError,
				Field:    "name",
				Message:  "is required",
				Value:    "",
			},
			want: "error: field \"name\": is required (got )",
		},
		{
			name: "warning without field",
			i: Issue{
				Severity: SeverityWarning,
				Message:  "recommended description",
			},
			want: "warning: recommended description",
		},
		{
			name: "info with line",
			i: Issue{
				Severity: SeverityInfo,
				Line:     12,
				Message:  "broken link",
			},
			want: "info: line 12: broken link",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.i.Error(); got != tt.want {
				t.Errorf("Issue.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult_Helpers(t *testing.T) {
	r := NewResult("SKILL.md")

	assert.False(t, r.HasErrors())
	assert.True(t, r.Valid())

	r.AddError("f1", "m1", "v1")
	assert.True(t, r.HasErrors())
	assert.False(t, r.Valid())
	assert.Len(t, r.Errors(), 1)

	assert.False(t, r.HasWarnings())
	r.AddWarning("f2", "m2", "v2")
	assert.True(t, r.HasWarnings())
	assert.Len(t, r.Warnings(), 1)

	r.AddInfo("f3", "m3", "v3")
	assert.Len(t, r.Infos(), 1)
	assert.Len(t, r.Issues, 3)
}

func TestResult_Merge(t *testing.T) {
	inner := &Result{}
	inner.AddError("height", "must be positive", -1)
	inner.AddWarning("", "room is unnamed", nil)

	r := &Result{}
	r.Merge("rooms[0]", inner)
	r.Merge("ignored", nil)

	require.Len(t, r.Issues, 2)
	assert.Equal(t, "rooms[0].height", r.Issues[0].Field)
	assert.Equal(t, "rooms[0]", r.Issues[1].Field)

	flat := &Result{}
	flat.Merge("", inner)
	assert.Equal(t, "height", flat.Issues[0].Field)
}

func TestResult_Sort(t *testing.T) {
	r := &Result{}
	r.Add(Issue{Severity: SeverityWarning, Line: 1, Message: "w"})
	r.Add(Issue{Severity: SeverityError, Line: 9, Message: "e9"})
	r.Add(Issue{Severity: SeverityError, Line: 2, Message: "e2"})

	r.Sort()

	var got []string
	for _, i := range r.Issues {
		got = append(got, i.Message)
	}
	assert.Equal(t, []string{"e2", "e9", "w"}, got)
}

func TestResult_NilSafety(t *testing.T) {
	var r *Result
	assert.False(t, r.HasErrors())
	assert.False(t, r.HasWarnings())
	assert.True(t, r.Valid())
	assert.Nil(t, r.Errors())
	assert.Nil(t, r.Warnings())
	r.Sort()
}
