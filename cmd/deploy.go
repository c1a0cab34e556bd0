package cmd

import (
	"fmt"

	"github.com/Azure/aspire-deploy/pkg/kubernetes"
	"github.com/Azure/aspire-deploy/pkg/pipeline"
	"github.com/spf13/cobra"
)

func addDeployFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input-path", "i", "aspire-output", "Generated kustomize tree")
	cmd.Flags().String("overlay-path", "", "Kustomize overlay to apply instead of the input path")
	cmd.Flags().String("kube-context", "", "Kube context to switch to first")
	addSecretFlags(cmd)
}

func newApplyCommand(a *app) *cobra.Command {
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a generated kustomize tree to the current cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, err := a.deployer()
			if err != nil {
				return err
			}
			objects, err := deployer.Apply(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "✅ Applied %d objects\n", len(objects))
			for _, o := range objects {
				fmt.Fprintf(a.out, "  %s\n", o)
			}
			return nil
		},
	}
	addDeployFlags(applyCmd)
	applyCmd.Flags().Bool("wait", false, "Wait for every Deployment and StatefulSet to roll out")
	applyCmd.Flags().String("wait-timeout", "5m", "How long to wait for each rollout")
	return applyCmd
}

func newDestroyCommand(a *app) *cobra.Command {
	destroyCmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete everything a generated kustomize tree describes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, err := a.deployer()
			if err != nil {
				return err
			}
			if err := deployer.Destroy(cmd.Context(), a.cfg); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "✅ Destroyed")
			return nil
		},
	}
	addDeployFlags(destroyCmd)
	return destroyCmd
}

func (a *app) deployer() (*pipeline.Deployer, error) {
	clients, err := a.newClients(a.logger, a.cfg)
	if err != nil {
		return nil, err
	}
	if clients.shellsOut() {
		if err := kubernetes.CheckKubectlInstalled(); err != nil {
			return nil, err
		}
	}
	return pipeline.NewDeployer(a.logger, clients.Kube, a.out), nil
}
