package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env, level string
		debug      bool
		warnOnly   bool
	}{
		{"local", "", true, false},
		{"prod", "", false, false},
		{"prod", "debug", true, false},
		{"local", "warn", false, true},
		{"prod", "loud", false, false},
	}
	for _, tt := range tests {
		l, err := New("settlement-service", tt.env, tt.level)
		if err != nil {
			t.Fatalf("New(%s, %s) = %v", tt.env, tt.level, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("%s/%s: debug enabled = %v, want %v", tt.env, tt.level, got, tt.debug)
		}
		if got := !l.Core().Enabled(zapcore.InfoLevel); got != tt.warnOnly {
			t.Errorf("%s/%s: info disabled = %v, want %v", tt.env, tt.level, got, tt.warnOnly)
		}
	}
}
