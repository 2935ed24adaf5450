package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("SECRET", "test secret")

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", values.RunAddr)
	assert.Equal(t, ":8081", values.FiberRunAddr)
	assert.Equal(t, "info", values.LogLevel)
	assert.Equal(t, "db.json", values.DBFileName)
	assert.Equal(t, "", values.DatabaseDSN)
	assert.Equal(t, 10*time.Second, values.DBConnectionTimeout)
	assert.Equal(t, "token", values.AuthCookieName)
	assert.Equal(t, "test secret", values.TokenSigningSecretKey)
	assert.Equal(t, 24*time.Hour, values.TokenTTL)
	assert.Equal(t, 10, values.BCryptCost)
}

func TestNewRequiresSigningSecret(t *testing.T) {
	t.Setenv("SECRET", "")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err, "an empty signing secret must be a startup error")
}

func TestNewAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SECRET", "test secret")
	t.Setenv("SERVER_ADDRESS", "localhost:9090")
	t.Setenv("FIBER_SERVER_ADDRESS", "localhost:9091")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FILE_STORAGE_PATH", "users_test.json")
	t.Setenv("AUTH_COOKIE_NAME", "session")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("BCRYPT_COST", "12")

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", values.RunAddr)
	assert.Equal(t, "localhost:9091", values.FiberRunAddr)
	assert.Equal(t, "debug", values.LogLevel)
	assert.Equal(t, "users_test.json", values.DBFileName)
	assert.Equal(t, "session", values.AuthCookieName)
	assert.Equal(t, time.Hour, values.TokenTTL)
	assert.Equal(t, 12, values.BCryptCost)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown log level", "LOG_LEVEL", "loudest"},
		{"bcrypt cost below the algorithm minimum", "BCRYPT_COST", "2"},
		{"bcrypt cost above the algorithm maximum", "BCRYPT_COST", "42"},
		{"unparsable listen address", "SERVER_ADDRESS", "no-port-here"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv("SECRET", "test secret")
			t.Setenv(testCase.key, testCase.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}
