// Package config loads aspire-deploy settings: defaults, then an optional
// .env file, then ASPIRE_DEPLOY_* environment variables. Command-line flags are
// applied on top by the CLI before Validate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/descriptor"
	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// OutputFormat selects what generate writes.
type OutputFormat string

const (
	OutputKustomize OutputFormat = "kustomize"
	OutputCompose   OutputFormat = "compose"
)

const envPrefix = "ASPIRE_DEPLOY_"

type Config struct {
	// Generate
	ManifestPath      string       `env:"ASPIRE_DEPLOY_MANIFEST"`
	OutputPath        string       `env:"ASPIRE_DEPLOY_OUTPUT_PATH"`
	OutputFormat      OutputFormat `env:"ASPIRE_DEPLOY_OUTPUT_FORMAT"`
	Namespace         string       `env:"ASPIRE_DEPLOY_NAMESPACE"`
	ImageTags         []string     `env:"ASPIRE_DEPLOY_IMAGE_TAG"`
	ContainerRegistry string       `env:"ASPIRE_DEPLOY_CONTAINER_REGISTRY"`
	ContainerBuilder  string       `env:"ASPIRE_DEPLOY_CONTAINER_BUILDER"`
	ImagePullPolicy   string       `env:"ASPIRE_DEPLOY_IMAGE_PULL_POLICY"`
	ServiceType       string       `env:"ASPIRE_DEPLOY_SERVICE_TYPE"`
	SkipBuild         bool         `env:"ASPIRE_DEPLOY_SKIP_BUILD"`
	PrivateRegistry   bool         `env:"ASPIRE_DEPLOY_PRIVATE_REGISTRY"`
	IncludeDashboard  bool         `env:"ASPIRE_DEPLOY_INCLUDE_DASHBOARD"`
	InlineSecrets     bool         `env:"ASPIRE_DEPLOY_INLINE_SECRETS"`
	DisableSecrets    bool         `env:"ASPIRE_DEPLOY_DISABLE_SECRETS"`
	EncodeSecrets     bool         `env:"ASPIRE_DEPLOY_ENCODE_SECRETS"`
	SecretsDir        string       `env:"ASPIRE_DEPLOY_SECRETS_DIR"`
	OverridesPath     string       `env:"ASPIRE_DEPLOY_OVERRIDES"`

	// Apply / destroy
	InputPath   string `env:"ASPIRE_DEPLOY_INPUT_PATH"`
	OverlayPath string `env:"ASPIRE_DEPLOY_OVERLAY_PATH"`
	KubeContext string `env:"ASPIRE_DEPLOY_KUBE_CONTEXT"`
	// Wait blocks apply until every workload has rolled out.
	Wait        bool   `env:"ASPIRE_DEPLOY_WAIT"`
	WaitTimeout string `env:"ASPIRE_DEPLOY_WAIT_TIMEOUT"`

	// Logging settings
	LogLevel  string `env:"ASPIRE_DEPLOY_LOG_LEVEL"`
	LogFormat string `env:"ASPIRE_DEPLOY_LOG_FORMAT"`
}

// Load builds a configuration from defaults, envFile when given, and the
// environment.
func Load(envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigurationInvalid, "config", "failed to load .env file "+envFile, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		ManifestPath:     "manifest.json",
		OutputPath:       "aspire-output",
		OutputFormat:     OutputKustomize,
		ImageTags:        []string{"latest"},
		ContainerBuilder: string(build.BuilderDocker),
		ImagePullPolicy:  string(descriptor.PullIfNotPresent),
		ServiceType:      string(descriptor.ServiceClusterIP),
		SecretsDir:       ".aspire-deploy/secrets",
		InputPath:        "aspire-output",
		WaitTimeout:      "5m",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

func loadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"MANIFEST":           &cfg.ManifestPath,
		"OUTPUT_PATH":        &cfg.OutputPath,
		"NAMESPACE":          &cfg.Namespace,
		"CONTAINER_REGISTRY": &cfg.ContainerRegistry,
		"CONTAINER_BUILDER":  &cfg.ContainerBuilder,
		"IMAGE_PULL_POLICY":  &cfg.ImagePullPolicy,
		"SERVICE_TYPE":       &cfg.ServiceType,
		"SECRETS_DIR":        &cfg.SecretsDir,
		"OVERRIDES":          &cfg.OverridesPath,
		"INPUT_PATH":         &cfg.InputPath,
		"OVERLAY_PATH":       &cfg.OverlayPath,
		"KUBE_CONTEXT":       &cfg.KubeContext,
		"WAIT_TIMEOUT":       &cfg.WaitTimeout,
		"LOG_LEVEL":          &cfg.LogLevel,
		"LOG_FORMAT":         &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(envPrefix + "OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(strings.ToLower(v))
	}
	if v := os.Getenv(envPrefix + "IMAGE_TAG"); v != "" {
		cfg.ImageTags = SplitList(v)
	}

	bools := map[string]*bool{
		"SKIP_BUILD":        &cfg.SkipBuild,
		"PRIVATE_REGISTRY":  &cfg.PrivateRegistry,
		"INCLUDE_DASHBOARD": &cfg.IncludeDashboard,
		"INLINE_SECRETS":    &cfg.InlineSecrets,
		"DISABLE_SECRETS":   &cfg.DisableSecrets,
		"ENCODE_SECRETS":    &cfg.EncodeSecrets,
		"WAIT":              &cfg.Wait,
	}
	for key, dst := range bools {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(errors.CodeConfigurationInvalid, "config",
				fmt.Sprintf("%s%s must be a boolean, got '%s'", envPrefix, key, v), err)
		}
		*dst = b
	}
	return nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	parts := lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Compact(parts)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if c.OutputFormat != OutputKustomize && c.OutputFormat != OutputCompose {
		return invalid("output_format must be one of: kustomize, compose")
	}
	if _, err := build.ParseContainerBuilder(c.ContainerBuilder); err != nil {
		return err
	}
	if _, err := descriptor.ParseImagePullPolicy(c.ImagePullPolicy); err != nil {
		return invalid(err.Error())
	}
	if _, err := descriptor.ParseServiceType(c.ServiceType); err != nil {
		return invalid(err.Error())
	}
	if len(c.ImageTags) == 0 {
		return invalid("at least one image tag is required")
	}
	if c.InlineSecrets && c.DisableSecrets {
		return invalid("inline_secrets and disable_secrets cannot both be set")
	}
	if d, err := time.ParseDuration(c.WaitTimeout); err != nil || d <= 0 {
		return invalid("wait_timeout must be a positive duration such as 90s or 5m")
	}
	validLogLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !lo.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return invalid("log_level must be one of: trace, debug, info, warn, error")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return invalid("log_format must be one of: console, json")
	}
	return nil
}

func invalid(msg string) error {
	return errors.New(errors.CodeConfigurationInvalid, "config", "invalid configuration: "+msg, nil)
}
