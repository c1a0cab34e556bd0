package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/aspire-deploy/pkg/domain/errors"
	"github.com/Azure/aspire-deploy/pkg/logger"
)

type RunOutcome string

const (
	RunOutcomeSuccess RunOutcome = "success"
	RunOutcomeFailure RunOutcome = "failure"
	RunOutcomeTimeout RunOutcome = "timeout"
)

// ReportDirectory sits next to the default secrets directory.
const ReportDirectory = ".aspire-deploy"

const RunReportFileName = "run_report.json"

const ReportMarkdownFileName = "report.md"

type RunReport struct {
	Outcome      RunOutcome        `json:"outcome"`
	OutputFormat string            `json:"output_format"`
	OutputPath   string            `json:"output_path"`
	Resources    []ResourceSummary `json:"resources"`
	Images       map[string]string `json:"images,omitempty"`
	Files        []string          `json:"files"`
	StageHistory []StageVisit      `json:"stage_history"`
}

type ResourceSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func NewReport(ctx context.Context, state *PipelineState) *RunReport {
	outcome := RunOutcomeFailure
	if ctx.Err() == context.DeadlineExceeded || ctx.Err() == context.Canceled {
		outcome = RunOutcomeTimeout
	}
	if state.Success {
		outcome = RunOutcomeSuccess
	}

	report := &RunReport{
		Outcome:      outcome,
		Files:        state.Files,
		StageHistory: state.StageHistory,
	}
	if state.Config != nil {
		report.OutputFormat = string(state.Config.OutputFormat)
		report.OutputPath = state.Config.OutputPath
	}
	if state.Manifest != nil {
		for _, r := range state.Manifest.Ordered() {
			report.Resources = append(report.Resources, ResourceSummary{Name: r.ResourceName(), Type: r.ResourceType()})
			if state.Caches == nil {
				continue
			}
			if image, err := state.Caches.ImageFor(r.ResourceName()); err == nil {
				if report.Images == nil {
					report.Images = map[string]string{}
				}
				report.Images[r.ResourceName()] = image
			}
		}
	}
	return report
}

// formatMarkdownReport renders the same information as RunReport for people.
func formatMarkdownReport(report *RunReport) string {
	var md strings.Builder

	md.WriteString("# aspire-deploy run\n\n")
	md.WriteString(fmt.Sprintf("**Outcome:** %s\n\n", report.Outcome))
	if report.OutputPath != "" {
		md.WriteString(fmt.Sprintf("**Output:** %s (%s)\n\n", report.OutputPath, report.OutputFormat))
	}

	md.WriteString("## Stage History\n\n")
	if len(report.StageHistory) == 0 {
		md.WriteString("No stage history recorded.\n")
	} else {
		md.WriteString("| Stage | Outcome | Duration |\n")
		md.WriteString("|-------|---------|----------|\n")
		for _, visit := range report.StageHistory {
			md.WriteString(fmt.Sprintf("| %s | %s | %s |\n", visit.StageID, visit.Outcome, visit.Duration))
		}
	}

	md.WriteString("\n## Resources\n\n")
	if len(report.Resources) == 0 {
		md.WriteString("No resources.\n")
	} else {
		md.WriteString("| Name | Type | Image |\n")
		md.WriteString("|------|------|-------|\n")
		for _, r := range report.Resources {
			md.WriteString(fmt.Sprintf("| %s | %s | %s |\n", r.Name, r.Type, report.Images[r.Name]))
		}
	}

	if len(report.Files) > 0 {
		md.WriteString("\n## Files\n\n")
		for _, f := range report.Files {
			md.WriteString(fmt.Sprintf("- %s\n", f))
		}
	}
	return md.String()
}

// WriteReport writes run_report.json and report.md below targetDir.
func WriteReport(ctx context.Context, state *PipelineState, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		logger.Errorf("Error creating report directory %s: %v", targetDir, err)
		return errors.Operational(errors.CodeIoError, "", "creating report directory "+targetDir, err)
	}

	report := NewReport(ctx, state)
	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Operational(errors.CodeIoError, "", "marshalling run report", err)
	}
	reportFile := filepath.Join(targetDir, RunReportFileName)
	logger.Debugf("Writing run report to %s", reportFile)
	if err := os.WriteFile(reportFile, reportJSON, 0o644); err != nil {
		return errors.Operational(errors.CodeIoError, "", "writing "+reportFile, err)
	}

	markdownFile := filepath.Join(targetDir, ReportMarkdownFileName)
	logger.Debugf("Writing markdown report to %s", markdownFile)
	if err := os.WriteFile(markdownFile, []byte(formatMarkdownReport(report)), 0o644); err != nil {
		return errors.Operational(errors.CodeIoError, "", "writing "+markdownFile, err)
	}
	return nil
}
