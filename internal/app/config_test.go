package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sellapp/sellapp/testing"
)

func TestInTestMode(t *testing.T) {
	assert.True(t, InTestMode(), "the testing package enables test mode")

	for value, want := range map[string]bool{"0": false, "true": true, "yes": false, "": false, " 1 ": true} {
		t.Setenv(testModeEnv, value)
		RefreshTestMode()
		assert.Equal(t, want, InTestMode(), "%q", value)
	}

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("DASHBOARD_WIDGET_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "sellapp_session", cfg.SessionCookie)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 2*time.Second, cfg.DashboardWidgetTimeout)
}

func TestLoadConfigRejectsWeakSecrets(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("JWT_SECRET", "short")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "jwt secret")

	setRequiredSecrets(t)
	t.Setenv("CSRF_SECRET", "")
	_, err = LoadConfig()
	assert.Error(t, err)
}
