package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingConfiguration is returned when a required environment variable
// is absent or empty. The wrapping error names the variable.
var ErrMissingConfiguration = errors.New("missing configuration")

type Config struct {
	Extract   ExtractConfig
	S3        S3Config
	Snowflake SnowflakeConfig
	Env       string
}

type ExtractConfig struct {
	Backoff BackoffConfig
}

// BackoffConfig is handed to the AWS SDK's standard retryer.
type BackoffConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

type S3Config struct {
	Region    string `mapstructure:"region"`
	ObjectKey string `mapstructure:"object_key"`
	// BaseEndpoint points the client at a non-AWS endpoint (MinIO, localstack,
	// test servers). Empty means the real AWS endpoint for Region.
	BaseEndpoint string `mapstructure:"base_endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type SnowflakeConfig struct {
	Warehouse string `mapstructure:"warehouse"`
	Database  string `mapstructure:"database"`
	Schema    string `mapstructure:"schema"`
	Table     string `mapstructure:"table"`
	// TruncateFirst empties the target table before loading. Off by default:
	// rerunning the pipeline appends and duplicates rows.
	TruncateFirst bool `mapstructure:"truncate_first"`
}

// NewConfig loads the configuration from the provided base config reader
// and merges it with the environment-specific configuration.
func NewConfig(baseConfigReader io.Reader, envConfigReader io.Reader, env string) (*Config, error) {
	if env == "" {
		env = "dev"
	}

	viper.SetConfigType("yaml")

	if err := viper.ReadConfig(baseConfigReader); err != nil {
		return nil, fmt.Errorf("error reading base config: %w", err)
	}

	if envConfigReader != nil {
		if err := viper.MergeConfig(envConfigReader); err != nil {
			log.Printf("Error merging environment-specific config: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	config.Env = env

	return &config, nil
}

// Secrets holds the six required credentials. They only ever live in the
// process environment and this struct; they are never written to config files.
type Secrets struct {
	SnowflakeUser     string
	SnowflakePassword string
	SnowflakeAccount  string
	BucketName        string
	AWSAccessKey      string
	AWSSecretKey      string
}

// LoadSecrets reads the required environment variables and fails fast on the
// first absent or empty one, before any network client is constructed.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	required := []struct {
		name string
		dst  *string
	}{
		{"SNOWFLAKE_USERNAME", &s.SnowflakeUser},
		{"SNOWFLAKE_PASSWORD", &s.SnowflakePassword},
		{"SNOWFLAKE_ACCOUNT", &s.SnowflakeAccount},
		{"BUCKET_NAME", &s.BucketName},
		{"AWS_ACCESS_KEY", &s.AWSAccessKey},
		{"AWS_SECRET_ACCESS_KEY", &s.AWSSecretKey},
	}

	for _, r := range required {
		v := strings.TrimSpace(os.Getenv(r.name))
		if v == "" {
			return Secrets{}, fmt.Errorf("%w: %s env variable is not set", ErrMissingConfiguration, r.name)
		}
		*r.dst = v
	}

	return s, nil
}
