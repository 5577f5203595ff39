package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud", Encoding: "console"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "invalid log level: loud")
}

func TestNewEncoder(t *testing.T) {
	for _, encoding := range []string{"json", "console", ""} {
		enc, err := newEncoder(encoding)
		require.NoError(t, err, "encoding %q", encoding)
		assert.NotNil(t, enc)
	}

	_, err := newEncoder("logfmt")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGetBootstrapsDefault(t *testing.T) {
	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get())
}
