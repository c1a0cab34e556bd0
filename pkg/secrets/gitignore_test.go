package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitIgnored(t *testing.T) {
	tests := []struct {
		name      string
		gitignore string
		path      string
		want      bool
	}{
		{"no gitignore", "", ".aspire-deploy/secrets", false},
		{"directory pattern", "bin/\n.aspire-deploy/\n", ".aspire-deploy/secrets", true},
		{"directory itself", ".aspire-deploy/\n", ".aspire-deploy", true},
		{"unrelated patterns", "bin/\nobj/\n", ".aspire-deploy/secrets", false},
		{"negated", ".aspire-deploy/\n!.aspire-deploy/secrets\n", ".aspire-deploy/secrets", false},
		{"outside root", ".aspire-deploy/\n", "../elsewhere/secrets", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.gitignore != "" {
				require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(tt.gitignore), 0o644))
			}
			got, err := IsGitIgnored(root, filepath.Join(root, tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
