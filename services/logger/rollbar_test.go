package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/user"
)

func TestRollbarLogger(t *testing.T) {
	tanaka := user.User{ID: "u1", Username: "tanaka"}
	sato := user.User{ID: "u2", Email: "sato@school.jp"}

	tests := []struct {
		name  string
		debug bool
		logFn func(l *RollbarLogger)
		want  string
	}{
		{
			name:  "info",
			logFn: func(l *RollbarLogger) { l.Info("server started") },
			want:  "INFO server started\n",
		},
		{
			name:  "debug dropped",
			logFn: func(l *RollbarLogger) { l.Debug("noise") },
			want:  "",
		},
		{
			name:  "debug kept",
			debug: true,
			logFn: func(l *RollbarLogger) { l.Debug("noise") },
			want:  "DEBUG noise\n",
		},
		{
			name: "error with user and data",
			logFn: func(l *RollbarLogger) {
				l.Error("saving attendance", errors.New("disk full"), tanaka, map[string]interface{}{"path": "/v1/attendance", "method": "PUT"}, sato)
			},
			want: "ERROR saving attendance user=tanaka err=\"disk full\" method=PUT path=/v1/attendance\n",
		},
		{
			name:  "user without username",
			logFn: func(l *RollbarLogger) { l.Warn("login failed", sato) },
			want:  "WARN login failed user=sato@school.jp\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", TestMode: true, Debug: tt.debug})
			tt.logFn(l)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
