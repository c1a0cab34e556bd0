package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/compose-spec/compose-go/v2/types"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the compose file written to the output path.
const FileName = "docker-compose.yaml"

// File accumulates services and volumes into one compose project.
type File struct {
	logger  zerolog.Logger
	project *types.Project
}

// NewFile creates an empty compose project.
func NewFile(logger zerolog.Logger, name string) *File {
	return &File{
		logger: logger.With().Str("component", "compose_writer").Logger(),
		project: &types.Project{
			Name:     name,
			Services: types.Services{},
		},
	}
}

// Project returns the project built so far.
func (f *File) Project() *types.Project { return f.project }

// Add merges one resource's entry into the project.
func (f *File) Add(entry *Entry) error {
	if err := f.AddService(entry.Service); err != nil {
		return err
	}
	for _, s := range entry.Sidecars {
		if err := f.AddService(s); err != nil {
			return err
		}
	}
	for name, v := range entry.Volumes {
		if f.project.Volumes == nil {
			f.project.Volumes = types.Volumes{}
		}
		f.project.Volumes[name] = v
	}
	return nil
}

// AddService adds a single service. Service names are unique within a project.
func (f *File) AddService(svc types.ServiceConfig) error {
	if _, exists := f.project.Services[svc.Name]; exists {
		return errors.Validation(errors.CodeDuplicateEntry, svc.Name, "", "compose service already defined")
	}
	f.project.Services[svc.Name] = svc
	return nil
}

// Write encodes the project to <dir>/docker-compose.yaml.
func (f *File) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Operational(errors.CodeIoError, "", "creating output directory "+dir, err)
	}
	path := filepath.Join(dir, FileName)
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Operational(errors.CodeIoError, "", "creating "+path, err)
	}
	defer out.Close()

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(f.project); err != nil {
		return "", errors.Operational(errors.CodeIoError, "", fmt.Sprintf("encoding %s", path), err)
	}
	if err := encoder.Close(); err != nil {
		return "", errors.Operational(errors.CodeIoError, "", fmt.Sprintf("flushing %s", path), err)
	}
	f.logger.Info().Str("output_path", path).Int("services", len(f.project.Services)).Msg("Generated compose file")
	return path, nil
}
