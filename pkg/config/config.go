// Package config provides configuration loading for pqi.
//
// Settings are merged from three layers in increasing precedence: built-in
// defaults, an optional config.yaml found in one of the candidate
// directories, and PQI_* environment variables. Command-line flags are
// applied on top by the CLI layer.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

var configCandidateDirs = []string{"/etc/pqi/", "$HOME/.config/pqi", "./"}

// Config holds the resolved pqi settings.
type Config struct {
	// Log configures the diagnostic logger (results ignore these).
	Log LogConfig
	// Read configures table reading.
	Read ReadConfig
	// Output configures the converter subcommands.
	Output OutputConfig
	// Remote configures s3:// and gs:// source access.
	Remote RemoteConfig
	// Rows is the default row count for head and tail.
	Rows int
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string // console or json
}

// ReadConfig configures Parquet reading defaults.
type ReadConfig struct {
	Threads   bool
	MemoryMap bool
	BatchSize int64
}

// OutputConfig configures conversion output.
type OutputConfig struct {
	Compression string
}

// RemoteConfig configures remote object access.
type RemoteConfig struct {
	S3Region           string
	GCSCredentialsFile string
}

func setDefaults() {
	viper.SetDefault("log.level", "error")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("rows", 10)
	viper.SetDefault("read.threads", false)
	viper.SetDefault("read.mmap", false)
	viper.SetDefault("read.batch_size", 4096)
	viper.SetDefault("output.compression", "snappy")
	viper.SetDefault("s3.region", "")
	viper.SetDefault("gcs.credentials_file", "")
}

// Load resolves the configuration from defaults, an optional config file,
// and the environment. A missing config file is not an error.
func Load() (*Config, error) {
	// env
	viper.SetEnvPrefix("PQI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// defaults
	setDefaults()

	// config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, d := range configCandidateDirs {
		viper.AddConfigPath(d)
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Read: ReadConfig{
			Threads:   viper.GetBool("read.threads"),
			MemoryMap: viper.GetBool("read.mmap"),
			BatchSize: viper.GetInt64("read.batch_size"),
		},
		Output: OutputConfig{
			Compression: viper.GetString("output.compression"),
		},
		Remote: RemoteConfig{
			S3Region:           viper.GetString("s3.region"),
			GCSCredentialsFile: viper.GetString("gcs.credentials_file"),
		},
		Rows: viper.GetInt("rows"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Rows < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "rows must be non-negative, got %d", c.Rows)
	}
	if c.Read.BatchSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "read.batch_size must be positive, got %d", c.Read.BatchSize)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
