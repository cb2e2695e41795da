package logging

import (
	"os"
	"testing"
)

func TestSupportsColor(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		isTTY bool
		want  bool
	}{
		{
			name:  "NO_COLOR prevents color",
			env:   map[string]string{"NO_COLOR": "1"},
			isTTY: true,
			want:  false,
		},
		{
			name:  "TERM=dumb prevents color",
			env:   map[string]string{"TERM": "dumb"},
			isTTY: true,
			want:  false,
		},
		{
			name:  "non-TTY prevents color",
			env:   map[string]string{},
			isTTY: false,
			want:  false,
		},
		{
			name:  "TTY allows color",
			env:   map[string]string{},
			isTTY: true,
			want:  true,
		},
		{
			name:  "FORCE_COLOR overrides non-TTY",
			env:   map[string]string{"FORCE_COLOR": "1"},
			isTTY: false,
			want:  true,
		},
		{
			name:  "FORCE_COLOR=0 is ignored",
			env:   map[string]string{"FORCE_COLOR": "0"},
			isTTY: false,
			want:  false,
		},
		{
			name:  "NO_COLOR beats FORCE_COLOR",
			env:   map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1"},
			isTTY: true,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "TERM", "FORCE_COLOR"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var w mockWriter
			got := supportsColor(&w, tt.isTTY)
			if got != tt.want {
				t.Errorf("supportsColor() = %v, want %v (env=%v, isTTY=%v)", got, tt.want, tt.env, tt.isTTY)
			}
		})
	}
}

func TestIsTTY_NonFile(t *testing.T) {
	var w mockWriter
	if IsTTY(&w) {
		t.Error("IsTTY should return false for mockWriter")
	}
}

type mockWriter struct{}

func (m *mockWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}
