package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCheck struct {
	mock.Mock
}

func (m *mockCheck) Name() string     { return m.Called().String(0) }
func (m *mockCheck) Category() string { return m.Called().String(0) }

func (m *mockCheck) Run(ctx context.Context) *CheckResult {
	return m.Called(ctx).Get(0).(*CheckResult)
}

func returning(t *testing.T, r *CheckResult) *mockCheck {
	t.Helper()
	c := &mockCheck{}
	c.On("Run", mock.Anything).Return(r).Once()
	t.Cleanup(func() { c.AssertExpectations(t) })
	return c
}

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		s    Severity
		want string
	}{
		{SeverityPass, "pass"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name    string
		results []*CheckResult
		want    Summary
	}{
		{"empty runner", nil, Summary{}},
		{"single pass", []*CheckResult{{Status: SeverityPass}}, Summary{Passed: 1}},
		{"single info", []*CheckResult{{Status: SeverityInfo}}, Summary{Info: 1}},
		{"single warning", []*CheckResult{{Status: SeverityWarning}}, Summary{Warnings: 1}},
		{"single error", []*CheckResult{{Status: SeverityError}}, Summary{Errors: 1}},
		{
			name: "mixed severities",
			results: []*CheckResult{
				{Status: SeverityPass},
				{Status: SeverityPass},
				{Status: SeverityInfo},
				{Status: SeverityWarning},
				{Status: SeverityWarning},
				{Status: SeverityError},
			},
			want: Summary{Passed: 2, Info: 1, Warnings: 2, Errors: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner()
			for _, result := range tt.results {
				r.AddCheck(returning(t, result))
			}
			stamp := time.Date(2026, 3, 9, 14, 1, 0, 0, time.UTC)
			r.now = func() time.Time { return stamp }

			report := r.Run(context.Background())

			assert.Equal(t, stamp, report.Timestamp)
			assert.Len(t, report.Results, len(tt.results))
			assert.Equal(t, tt.want, report.Summary)
			assert.Equal(t, tt.want.Errors > 0, report.HasErrors())
			assert.Equal(t, tt.want.Warnings > 0, report.HasWarnings())
		})
	}
}

func TestRunner_PreservesOrder(t *testing.T) {
	first := &CheckResult{Name: "first"}
	second := &CheckResult{Name: "second"}
	report := NewRunner(returning(t, first), returning(t, second)).Run(context.Background())

	require.Len(t, report.Results, 2)
	assert.Same(t, first, report.Results[0])
	assert.Same(t, second, report.Results[1])
}

func TestRunner_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// mockCheck fails the test if Run is called without an expectation.
	report := NewRunner(&mockCheck{}).Run(ctx)
	assert.Empty(t, report.Results)
}
