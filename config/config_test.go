package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	conf := New()

	assert.Equal(t, "mongodb://127.0.0.1:27017", conf.URL)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestLoadDefaults(t *testing.T) {
	conf := Load(viper.New())

	assert.Equal(t, "local", conf.Env)
	assert.Equal(t, "8080", conf.Port)
	assert.Equal(t, 7*24*time.Hour, conf.SessionTTL)
	assert.Equal(t, "@hourly", conf.ReconcileSchedule)
	assert.False(t, conf.SecureCookies)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("ADMIN_HEAD_EMAIL", "Head@Relief.org")
	conf := Load(viper.New())

	assert.Equal(t, 2*time.Hour, conf.SessionTTL)
	assert.True(t, conf.SecureCookies)
	assert.Equal(t, "head@relief.org", conf.HeadAdminEmail)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("victim not found", http.StatusNotFound, rr, errors.New("mongo: no documents in result"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `{"success":false,"error":"victim not found"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
