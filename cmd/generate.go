package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Azure/aspire-deploy/pkg/build"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/pipeline"
	"github.com/Azure/aspire-deploy/pkg/processors"
	"github.com/spf13/cobra"
)

func newGenerateCommand(a *app) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a kustomize tree or a compose file from an Aspire manifest",
		Long: `The generate command builds the images the manifest needs and writes either a
kustomize tree (one directory per resource) or a docker-compose.yaml to the output path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd)
		},
	}

	f := generateCmd.Flags()
	f.StringP("manifest", "m", "manifest.json", "Path to the Aspire manifest")
	f.StringP("output-path", "o", "aspire-output", "Directory to write the output to")
	f.String("output-format", string(config.OutputKustomize), "Output format: kustomize or compose")
	f.StringP("namespace", "n", "", "Kubernetes namespace to deploy into")
	f.StringSlice("image-tag", []string{"latest"}, "Tags for built images")
	f.StringP("container-registry", "r", "", "Registry built images are pushed to")
	f.String("container-builder", string(build.BuilderDocker), "Container builder: docker, podman or nerdctl")
	f.String("image-pull-policy", "IfNotPresent", "Image pull policy: Always, IfNotPresent or Never")
	f.String("service-type", "ClusterIP", "Service type: ClusterIP, NodePort or LoadBalancer")
	f.Bool("skip-build", false, "Only compute image names, do not build or push")
	f.Bool("private-registry", false, "Reference the image pull secret of a private registry")
	f.Bool("include-dashboard", false, "Deploy the Aspire dashboard and point telemetry at it")
	f.Bool("inline-secrets", false, "Write Secret objects into the tree instead of secret generators")
	f.Bool("encode-secrets", false, "Base64 encode inline secret values")
	f.String("overrides", "", "YAML file with per-resource ingress, annotations and security context")
	addSecretFlags(generateCmd)
	return generateCmd
}

func (a *app) generate(cmd *cobra.Command) error {
	overrides, err := config.LoadOverrides(a.cfg.OverridesPath)
	if err != nil {
		return err
	}
	clients, err := a.newClients(a.logger, a.cfg)
	if err != nil {
		return err
	}
	if !a.cfg.SkipBuild && clients.shellsOut() {
		if err := build.CheckBuilderInstalled(build.ContainerBuilder(a.cfg.ContainerBuilder)); err != nil {
			a.logger.Warn().Err(err).Msg("Container builder not found, builds will fail")
		}
	}

	registry := processors.NewDefaultRegistry(a.logger)
	gen := pipeline.NewGenerator(a.logger, registry, clients.Container, clients.Runner, a.out)
	state := pipeline.NewPipelineState(a.cfg, overrides)
	runErr := gen.Generate(cmd.Context(), state)

	// The report sits next to the secrets directory.
	reportDir := filepath.Dir(a.cfg.SecretsDir)
	if err := pipeline.WriteReport(cmd.Context(), state, reportDir); err != nil {
		a.logger.Warn().Err(err).Msg("Could not write run report")
	}
	if runErr != nil {
		return runErr
	}
	for _, f := range state.Files {
		fmt.Fprintf(a.out, "  %s\n", f)
	}
	return nil
}
