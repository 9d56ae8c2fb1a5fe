// Package engine orchestrates one consolidation run: load, normalize,
// group, aggregate, project, save.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/fapiaoflow/fapiaoflow/internal/aggregate"
	"github.com/fapiaoflow/fapiaoflow/internal/group"
	"github.com/fapiaoflow/fapiaoflow/internal/normalize"
	"github.com/fapiaoflow/fapiaoflow/internal/project"
	"github.com/fapiaoflow/fapiaoflow/internal/source"
	"github.com/fapiaoflow/fapiaoflow/internal/template"
)

// RunOptions configures a single run.
type RunOptions struct {
	SourcePath   string
	TemplatePath string
	OutputDir    string // empty means the source file's directory
	Params       project.Params
	Projection   project.Config
	Columns      normalize.ColumnMapping
	DryRun       bool
	ShowProgress bool
}

// Summary is the user-facing result of a completed run.
type Summary struct {
	RunID          string
	OutputPath     string // empty on dry runs
	RowsRead       int
	GroupCount     int
	SkippedGroups  int
	EntriesEmitted int
	Duration       time.Duration
}

// Engine runs consolidation pipelines. It holds no per-run state, but a
// run owns its workbook exclusively: callers must not start concurrent
// runs against the same template instance.
type Engine struct {
	logger *slog.Logger
}

// New creates an engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Run executes the full pipeline. The workbook is saved exactly once,
// after all groups are processed; any stage error aborts the run with
// nothing written to disk.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	// A run is all-or-nothing: cancellation is honored only before the
	// pipeline starts, never mid-run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	runID := uuid.New().String()

	logger := e.logger.With("run_id", runID)
	logger.Info("Starting consolidation run",
		"source", opts.SourcePath,
		"template", opts.TemplatePath,
		"dry_run", opts.DryRun)

	table, err := source.Load(opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source table: %w", err)
	}
	logger.Debug("Loaded source table", "rows", len(table.Rows))

	records, err := normalize.Records(table, opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize records: %w", err)
	}

	groups := group.ByKey(records)
	logger.Debug("Grouped records", "groups", len(groups))

	workbook, err := template.Open(opts.TemplatePath, opts.Projection.BasicSheet, opts.Projection.DetailSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer func() {
		if closeErr := workbook.Close(); closeErr != nil {
			logger.Warn("Failed to close template workbook", "error", closeErr)
		}
	}()

	projector := project.New(workbook, opts.Projection, opts.Params, logger)

	bar := e.newProgressBar(len(groups), opts.ShowProgress)
	skipped := 0
	for _, g := range groups {
		entry := aggregate.Entry(g, opts.Params.ItemName)
		if entry == nil {
			// Zero-total group: excluded from output entirely.
			skipped++
			_ = bar.Add(1)
			continue
		}

		if err := projector.Write(entry); err != nil {
			return nil, fmt.Errorf("failed to project entry %s: %w", entry.Serial, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	summary := &Summary{
		RunID:          runID,
		RowsRead:       len(table.Rows),
		GroupCount:     len(groups),
		SkippedGroups:  skipped,
		EntriesEmitted: projector.Emitted(),
	}

	if opts.DryRun {
		summary.Duration = time.Since(startTime)
		logger.Info("Dry run complete, nothing saved",
			"entries", summary.EntriesEmitted,
			"skipped_groups", summary.SkippedGroups)
		return summary, nil
	}

	outputPath := e.outputPath(opts, startTime)
	if err := workbook.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("failed to save output workbook: %w", err)
	}

	summary.OutputPath = outputPath
	summary.Duration = time.Since(startTime)

	logger.Info("Consolidation run complete",
		"entries", summary.EntriesEmitted,
		"skipped_groups", summary.SkippedGroups,
		"output", outputPath,
		"duration", summary.Duration)

	return summary, nil
}

func (e *Engine) outputPath(opts RunOptions, now time.Time) string {
	path := template.OutputPath(opts.SourcePath, now)
	if opts.OutputDir != "" {
		path = filepath.Join(opts.OutputDir, filepath.Base(path))
	}
	return path
}

func (e *Engine) newProgressBar(total int, show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(int64(total))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Merging invoice groups..."),
		progressbar.OptionClearOnFinish(),
	)
}
