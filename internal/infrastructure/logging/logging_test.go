package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantLevel     logrus.Level
		wantJSON      bool
	}{
		{"debug", "json", logrus.DebugLevel, true},
		{"WARN", "text", logrus.WarnLevel, false},
		{"nonsense", "", logrus.InfoLevel, true},
	}
	for _, tt := range tests {
		l := New(tt.level, tt.format)
		assert.Equal(t, tt.wantLevel, l.GetLevel(), tt.level)
		_, isJSON := l.Formatter.(*logrus.JSONFormatter)
		assert.Equal(t, tt.wantJSON, isJSON, tt.format)
	}
}
