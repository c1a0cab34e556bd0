package cmd

import (
	"strings"

	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/spf13/cobra"
)

// applyFlags copies every flag the user actually set onto cfg, so flags win
// over the environment and unset flags leave it alone.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	strs := map[string]*string{
		"manifest":           &cfg.ManifestPath,
		"output-path":        &cfg.OutputPath,
		"namespace":          &cfg.Namespace,
		"container-registry": &cfg.ContainerRegistry,
		"container-builder":  &cfg.ContainerBuilder,
		"image-pull-policy":  &cfg.ImagePullPolicy,
		"service-type":       &cfg.ServiceType,
		"secrets-dir":        &cfg.SecretsDir,
		"overrides":          &cfg.OverridesPath,
		"input-path":         &cfg.InputPath,
		"overlay-path":       &cfg.OverlayPath,
		"kube-context":       &cfg.KubeContext,
		"wait-timeout":       &cfg.WaitTimeout,
		"log-level":          &cfg.LogLevel,
		"log-format":         &cfg.LogFormat,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	bools := map[string]*bool{
		"skip-build":        &cfg.SkipBuild,
		"private-registry":  &cfg.PrivateRegistry,
		"include-dashboard": &cfg.IncludeDashboard,
		"inline-secrets":    &cfg.InlineSecrets,
		"disable-secrets":   &cfg.DisableSecrets,
		"encode-secrets":    &cfg.EncodeSecrets,
		"wait":              &cfg.Wait,
	}
	for name, dst := range bools {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	if flags.Changed("output-format") {
		v, _ := flags.GetString("output-format")
		cfg.OutputFormat = config.OutputFormat(strings.ToLower(v))
	}
	if flags.Changed("image-tag") {
		v, _ := flags.GetStringSlice("image-tag")
		cfg.ImageTags = config.SplitList(strings.Join(v, ","))
	}
}

// addSecretFlags registers the secret handling flags shared by every command.
func addSecretFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("disable-secrets", false, "Do not generate or apply secrets")
	cmd.Flags().String("secrets-dir", "", "Directory holding the per-resource secret env files")
}
