// Package pipeline drives the aspire-deploy commands: generate compiles a
// manifest into a kustomize tree or a compose file, apply and destroy hand a
// generated tree to kubectl.
package pipeline

import (
	"context"
	"time"
)

// Stage is one step of a pipeline run.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *PipelineState) error
}

// StageFunc adapts a function to a Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, state *PipelineState) error
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(ctx context.Context, state *PipelineState) error {
	return s.Fn(ctx, state)
}

type StageOutcome string

const (
	StageOutcomeSuccess StageOutcome = "success"
	StageOutcomeFailure StageOutcome = "failure"
	StageOutcomeSkipped StageOutcome = "skipped"
)

// StageVisit records how one stage went.
type StageVisit struct {
	StageID  string        `json:"stage_id"`
	Outcome  StageOutcome  `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
