package cmd

import (
	"fmt"
	"io"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
)

// printErrorHelp prints the error with a hint for the common failure families.
func printErrorHelp(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ %v\n", err)
	switch {
	case errors.CodeOf(err) == errors.CodeToolNotFound:
		fmt.Fprintln(w, "💡 Install the missing tool, or pass --skip-build when the images already exist.")
	case errors.CodeOf(err) == errors.CodeRuntimeUnavailable:
		fmt.Fprintln(w, "💡 Start the container runtime, or pass --skip-build when the images already exist.")
	case errors.CodeOf(err) == errors.CodeConfigurationInvalid:
		fmt.Fprintln(w, "💡 Check the flags, ASPIRE_DEPLOY_* variables and the overrides file.")
	case errors.IsValidation(err):
		fmt.Fprintln(w, "💡 The manifest is invalid. Regenerate it with the Aspire AppHost or fix the named field.")
	case errors.CodeOf(err) == errors.CodeKubernetesApiError:
		fmt.Fprintln(w, "💡 Check the current kube context with 'kubectl config current-context'.")
	}
}
