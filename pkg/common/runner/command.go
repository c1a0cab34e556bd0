package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/Azure/aspire-deploy/pkg/logger"
)

// CommandRunner is an interface for executing commands and getting the output/error
type CommandRunner interface {
	RunCommand(ctx context.Context, args ...string) (string, error)
	RunCommandInDir(ctx context.Context, dir string, args ...string) (string, error)
}

type DefaultCommandRunner struct{}

var _ CommandRunner = &DefaultCommandRunner{}

func (d *DefaultCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	return d.RunCommandInDir(ctx, "", args...)
}

// RunCommandInDir runs a command with its working directory set to dir.
func (d *DefaultCommandRunner) RunCommandInDir(ctx context.Context, dir string, args ...string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("no command given")
	}
	logger.Debugf("Running command: %s", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	logger.Debugf("Command output: %s", string(out))
	return string(out), err
}

// LookPath reports whether the executable can be found in PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

type FakeCommandRunner struct {
	Output string
	ErrStr string

	mu    sync.Mutex
	Calls []string
	// Dirs holds the working directory of each call, "" for the current one.
	Dirs []string
}

var _ CommandRunner = &FakeCommandRunner{}

func (f *FakeCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	return f.RunCommandInDir(ctx, "", args...)
}

func (f *FakeCommandRunner) RunCommandInDir(_ context.Context, dir string, args ...string) (string, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, strings.Join(args, " "))
	f.Dirs = append(f.Dirs, dir)
	f.mu.Unlock()
	if f.ErrStr != "" {
		return f.Output, errors.New(f.ErrStr)
	}
	return f.Output, nil
}
