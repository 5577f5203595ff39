package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Rows)
	assert.False(t, cfg.Read.Threads)
	assert.False(t, cfg.Read.MemoryMap)
	assert.Equal(t, int64(4096), cfg.Read.BatchSize)
	assert.Equal(t, "snappy", cfg.Output.Compression)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PQI_LOG_LEVEL", "debug")
	t.Setenv("PQI_ROWS", "25")
	t.Setenv("PQI_READ_THREADS", "true")
	t.Setenv("PQI_OUTPUT_COMPRESSION", "zstd")
	t.Setenv("PQI_S3_REGION", "eu-west-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Rows)
	assert.True(t, cfg.Read.Threads)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.Equal(t, "eu-west-1", cfg.Remote.S3Region)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "negative rows",
			env:  map[string]string{"PQI_ROWS": "-1"},
		},
		{
			name: "zero batch size",
			env:  map[string]string{"PQI_READ_BATCH_SIZE": "0"},
		},
		{
			name: "unknown log format",
			env:  map[string]string{"PQI_LOG_FORMAT": "xml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}
