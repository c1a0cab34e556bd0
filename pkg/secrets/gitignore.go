package secrets

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IsGitIgnored reports whether path is excluded by the .gitignore in root.
// A missing .gitignore, or a path outside root, counts as not ignored.
func IsGitIgnored(root, path string) (bool, error) {
	gitignore := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		return false, nil
	}
	matcher, err := ignore.CompileIgnoreFile(gitignore)
	if err != nil {
		return false, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	rel = filepath.ToSlash(rel)
	// Directory patterns such as ".aspire-deploy/" only match paths below the directory.
	return matcher.MatchesPath(rel) || matcher.MatchesPath(rel+"/"), nil
}
