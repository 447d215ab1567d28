package config

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		baseYAML string  // Base YAML config
		envYAML  string  // Environment-specific YAML (optional)
		env      string  // Environment variable value
		want     *Config // Expected Config
		wantErr  bool    // Expecting an error?
	}{
		{
			name: "Successful Load with Default Env",
			baseYAML: `
extract:
  backoff:
    max_attempts: 5
    max_backoff: 30s
s3:
  region: us-east-1
  object_key: cost_of_living.csv
snowflake:
  warehouse: COMPUTE_WH
  database: COST_OF_LIVING
  schema: PUBLIC
  table: COST_OF_LIVING
`,
			env: "",
			want: &Config{
				Env: "dev",
				Extract: ExtractConfig{
					Backoff: BackoffConfig{
						MaxAttempts: 5,
						MaxBackoff:  30 * time.Second,
					},
				},
				S3: S3Config{
					Region:    "us-east-1",
					ObjectKey: "cost_of_living.csv",
				},
				Snowflake: SnowflakeConfig{
					Warehouse: "COMPUTE_WH",
					Database:  "COST_OF_LIVING",
					Schema:    "PUBLIC",
					Table:     "COST_OF_LIVING",
				},
			},
			wantErr: false,
		},
		{
			name: "Successful Load with Environment Override",
			baseYAML: `
s3:
  region: us-east-1
  object_key: cost_of_living.csv
snowflake:
  table: COST_OF_LIVING
  truncate_first: false
`,
			envYAML: `
s3:
  object_key: cost_of_living_staging.csv
snowflake:
  truncate_first: true
`,
			env: "staging",
			want: &Config{
				Env: "staging",
				S3: S3Config{
					Region:    "us-east-1",                  // From base
					ObjectKey: "cost_of_living_staging.csv", // Overridden
				},
				Snowflake: SnowflakeConfig{
					Table:         "COST_OF_LIVING",
					TruncateFirst: true, // Overridden
				},
			},
			wantErr: false,
		},
		{
			name:     "Invalid YAML",
			baseYAML: `s3: [region: "us-east-1"`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset Viper for each test
			viper.Reset()

			baseConfigReader := strings.NewReader(tt.baseYAML)
			var envConfigReader io.Reader
			if tt.envYAML != "" {
				envConfigReader = strings.NewReader(tt.envYAML)
			}

			got, err := NewConfig(baseConfigReader, envConfigReader, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setAllSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SNOWFLAKE_USERNAME", "etl_user")
	t.Setenv("SNOWFLAKE_PASSWORD", "hunter2")
	t.Setenv("SNOWFLAKE_ACCOUNT", "xy12345.eu-north-1")
	t.Setenv("BUCKET_NAME", "cost-of-living-data")
	t.Setenv("AWS_ACCESS_KEY", "AKIAEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
}

func TestLoadSecrets(t *testing.T) {
	setAllSecrets(t)

	secrets, err := LoadSecrets()
	assert.NoError(t, err)
	assert.Equal(t, Secrets{
		SnowflakeUser:     "etl_user",
		SnowflakePassword: "hunter2",
		SnowflakeAccount:  "xy12345.eu-north-1",
		BucketName:        "cost-of-living-data",
		AWSAccessKey:      "AKIAEXAMPLE",
		AWSSecretKey:      "secret",
	}, secrets)
}

func TestLoadSecrets_MissingAny(t *testing.T) {
	vars := []string{
		"SNOWFLAKE_USERNAME",
		"SNOWFLAKE_PASSWORD",
		"SNOWFLAKE_ACCOUNT",
		"BUCKET_NAME",
		"AWS_ACCESS_KEY",
		"AWS_SECRET_ACCESS_KEY",
	}

	for _, missing := range vars {
		t.Run(missing, func(t *testing.T) {
			setAllSecrets(t)
			t.Setenv(missing, "")

			_, err := LoadSecrets()
			assert.ErrorIs(t, err, ErrMissingConfiguration)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadSecrets_WhitespaceOnlyIsMissing(t *testing.T) {
	setAllSecrets(t)
	t.Setenv("SNOWFLAKE_PASSWORD", "   ")

	_, err := LoadSecrets()
	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Contains(t, err.Error(), "SNOWFLAKE_PASSWORD")
}
