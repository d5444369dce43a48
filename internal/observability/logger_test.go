package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   string
	}{
		{name: "default json logger", level: "info", format: "json", wantLevel: zapcore.InfoLevel},
		{name: "development console logger", level: "debug", format: "console", wantLevel: zapcore.DebugLevel},
		{name: "defaults when not set", wantLevel: zapcore.InfoLevel},
		{name: "invalid log level", level: "invalid", format: "json", wantErr: "invalid log level"},
		{name: "invalid log format", level: "info", format: "xml", wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)

			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Nil(t, logger)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, logger)
			defer logger.Sync()
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
		})
	}
}
