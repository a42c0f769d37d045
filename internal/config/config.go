// Package config loads service configuration from a yaml file with
// environment variable overrides.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Person   PersonConfig   `yaml:"person"`
	Campaign CampaignConfig `yaml:"campaign"`
	Redis    RedisConfig    `yaml:"redis"`
	Audit    AuditConfig    `yaml:"audit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// PersonConfig holds the DynamoDB person store settings.
type PersonConfig struct {
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override.
func (c PersonConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.AWSProfile
}

// CampaignConfig holds the campaign config store settings. Backend is "s3"
// or "postgres".
type CampaignConfig struct {
	Backend     string `yaml:"backend"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix"`
	DatabaseURL string `yaml:"database_url"`
}

// RedisConfig holds the campaign config cache settings.
type RedisConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the configured cache TTL as a duration.
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AuditConfig holds the audit record sink settings.
type AuditConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Person.AWSRegion == "" {
		cfg.Person.AWSRegion = "eu-west-2"
	}
	if cfg.Campaign.Backend == "" {
		cfg.Campaign.Backend = "s3"
	}
	if cfg.Campaign.S3Prefix == "" {
		cfg.Campaign.S3Prefix = "campaigns/"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.CacheTTLSeconds == 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	if cfg.Audit.S3Prefix == "" {
		cfg.Audit.S3Prefix = "audit/"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PERSON_DYNAMODB_TABLE"); v != "" {
		cfg.Person.DynamoDBTable = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Person.AWSRegion = v
	}
	if v := os.Getenv("CAMPAIGN_BACKEND"); v != "" {
		cfg.Campaign.Backend = v
	}
	if v := os.Getenv("CAMPAIGN_S3_BUCKET"); v != "" {
		cfg.Campaign.S3Bucket = v
	}
	if v := os.Getenv("CAMPAIGN_S3_PREFIX"); v != "" {
		cfg.Campaign.S3Prefix = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Campaign.DatabaseURL = v
		if cfg.Campaign.Backend == "" {
			cfg.Campaign.Backend = "postgres"
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AUDIT_S3_BUCKET"); v != "" {
		cfg.Audit.S3Bucket = v
	}

	return cfg, nil
}
