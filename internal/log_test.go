package internal

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/m1stadev/ios-beta-api/internal/config"
	"github.com/stretchr/testify/assert"
)

var envVarLog = strings.ToUpper(config.EnvPrefix + "_" + config.KeyLog) // BETACAT_LOG

func TestLogDisabledByDefault(t *testing.T) {
	// given: default environment with logging not enabled
	t.Setenv(envVarLog, "")
	config.InitViper()

	// when: initialize the logging
	InitLogging()
	hdl := slog.Default().Handler()
	_, isDiscardHandler := hdl.(*DiscardLogHandler)

	// then: the logs are written to the discard handler
	assert.True(t, isDiscardHandler)
}

func TestLogEnabledByEnvVar(t *testing.T) {
	// given: environment variable enabling the logging
	t.Setenv(envVarLog, "true")
	config.InitViper()

	// when: initialize the logging
	InitLogging()
	hdl := slog.Default().Handler()
	_, isDefaultHandler := hdl.(*DefaultLogHandler)

	// then: the logs are written to the default handler
	assert.True(t, isDefaultHandler)
}
