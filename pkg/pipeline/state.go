package pipeline

import (
	"github.com/Azure/aspire-deploy/pkg/buildcache"
	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/manifest"
	"github.com/Azure/aspire-deploy/pkg/secrets"
)

// PipelineState holds what the stages of one run hand to each other.
type PipelineState struct {
	Config    *config.Config
	Overrides *config.Overrides
	Manifest  *manifest.Manifest
	Caches    *buildcache.Caches
	// Secrets collects the resolved secret values of every workload.
	Secrets *secrets.MemoryStore
	// Files lists the main files the run wrote.
	Files        []string
	StageHistory []StageVisit
	Success      bool
}

// NewPipelineState creates the state for one run.
func NewPipelineState(cfg *config.Config, overrides *config.Overrides) *PipelineState {
	if overrides == nil {
		overrides = &config.Overrides{}
	}
	return &PipelineState{
		Config:    cfg,
		Overrides: overrides,
		Caches:    buildcache.New(),
		Secrets:   secrets.NewMemoryStore(),
	}
}
