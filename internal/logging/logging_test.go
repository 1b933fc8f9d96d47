package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want logrus.Level
	}{
		{"silent", logrus.PanicLevel},
		{"error", logrus.ErrorLevel},
		{"warn", logrus.WarnLevel},
		{"info", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"chatty", logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Debug("hidden")
	log.WithField("rows", 800).Info("trained")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "trained") || !strings.Contains(out, "rows=800") {
		t.Errorf("expected info line with fields, got %q", out)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	if log.IsLevelEnabled(logrus.ErrorLevel) {
		t.Error("Nop logger should not enable error level")
	}
}
