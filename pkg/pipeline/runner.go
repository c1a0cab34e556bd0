package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes stages in order and stops at the first failure. Files
// already written by earlier stages are left in place.
type Runner struct {
	logger zerolog.Logger
	stages []Stage
	out    io.Writer
}

// NewRunner constructs a Runner. You must pass at least one stage.
func NewRunner(logger zerolog.Logger, out io.Writer, stages ...Stage) *Runner {
	if len(stages) == 0 {
		panic("pipeline must have at least one stage")
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		logger: logger.With().Str("component", "pipeline_runner").Logger(),
		stages: stages,
		out:    out,
	}
}

// Run drives every stage against state.
func (r *Runner) Run(ctx context.Context, state *PipelineState) error {
	for i, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			r.skipRemaining(state, i)
			return err
		}
		fmt.Fprintf(r.out, "🔧 %s...\n", stage.Name())
		start := time.Now()
		err := stage.Run(ctx, state)
		visit := StageVisit{StageID: stage.Name(), Outcome: StageOutcomeSuccess, Duration: time.Since(start)}
		if err != nil {
			visit.Outcome = StageOutcomeFailure
			visit.Error = err.Error()
			state.StageHistory = append(state.StageHistory, visit)
			r.skipRemaining(state, i+1)
			fmt.Fprintf(r.out, "❌ %s failed: %v\n", stage.Name(), err)
			r.logger.Error().Err(err).Str("stage", stage.Name()).Msg("Stage failed")
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
		state.StageHistory = append(state.StageHistory, visit)
		r.logger.Debug().Str("stage", stage.Name()).Dur("duration", visit.Duration).Msg("Stage finished")
	}
	state.Success = true
	fmt.Fprintln(r.out, "✅ Done")
	return nil
}

func (r *Runner) skipRemaining(state *PipelineState, from int) {
	for _, s := range r.stages[from:] {
		state.StageHistory = append(state.StageHistory, StageVisit{StageID: s.Name(), Outcome: StageOutcomeSkipped})
	}
}
