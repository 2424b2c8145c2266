// Package export orchestrates one repository-to-document run: parse coordinates, list the tree,
// select files, resolve their content and assemble the Markdown document.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoctx/internal/document"
	"github.com/temirov/repoctx/internal/forge"
	"github.com/temirov/repoctx/internal/metrics"
	"github.com/temirov/repoctx/internal/selection"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const defaultWorkerCount = 1

// Forge lists and resolves repository files.
type Forge interface {
	ListFiles(ctx context.Context, coordinates types.Coordinates) ([]types.TreeEntry, error)
	Resolve(ctx context.Context, coordinates types.Coordinates, filePath string) (types.ResolvedFile, error)
}

// Request describes one export.
type Request struct {
	RepositoryURL     string
	Branch            string
	ExclusionPatterns []string
}

// Result is a successful export.
type Result struct {
	RunID       string
	Coordinates types.Coordinates
	Document    string
	Artifact    document.Artifact
	Summary     types.OutputSummary
}

// Options configures a Runner.
type Options struct {
	// Host is the forge host accepted in repository URLs; empty means github.com.
	Host     string
	Workers  int
	Logger   *zap.Logger
	Recorder metrics.Recorder
	// Counter enables the token estimate in the summary when set.
	Counter tokenizer.Counter
	Model   string
}

// Runner executes export runs against a Forge.
type Runner struct {
	forge    Forge
	host     string
	workers  int
	logger   *zap.Logger
	recorder metrics.Recorder
	counter  tokenizer.Counter
	model    string
}

// NewRunner builds a Runner with defaults applied.
func NewRunner(forgeClient Forge, options Options) (*Runner, error) {
	if forgeClient == nil {
		return nil, fmt.Errorf("export runner requires a forge client")
	}
	workers := options.Workers
	if workers < defaultWorkerCount {
		workers = defaultWorkerCount
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := options.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{
		forge:    forgeClient,
		host:     options.Host,
		workers:  workers,
		logger:   logger,
		recorder: recorder,
		counter:  options.Counter,
		model:    options.Model,
	}, nil
}

// Run performs one export. The first failure ends the run and no partial document is returned.
func (runner *Runner) Run(ctx context.Context, request Request) (Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := runner.logger.With(zap.String("run_id", runID))

	result, runErr := runner.run(ctx, logger, request)
	kind := ClassifyError(runErr)
	outcome := metrics.OutcomeSuccess
	if runErr != nil {
		outcome = metrics.OutcomeFailure
		logger.Debug("export failed", zap.String("kind", string(kind)), zap.Error(runErr))
	}
	runner.recorder.ObserveRun(outcome, string(kind), time.Since(startTime))
	if runErr != nil {
		return Result{}, runErr
	}
	result.RunID = runID
	return result, nil
}

func (runner *Runner) run(ctx context.Context, logger *zap.Logger, request Request) (Result, error) {
	coordinates, parseErr := forge.ParseRepositoryURL(request.RepositoryURL, runner.host, request.Branch)
	if parseErr != nil {
		return Result{}, parseErr
	}
	logger = logger.With(
		zap.String("owner", coordinates.Owner),
		zap.String("repository", coordinates.Repository),
		zap.String("reference", coordinates.Reference),
	)

	stageStart := time.Now()
	entries, listErr := runner.forge.ListFiles(ctx, coordinates)
	runner.recorder.ObserveStage(metrics.StageTree, time.Since(stageStart))
	if listErr != nil {
		return Result{}, listErr
	}
	runner.recorder.AddFiles(metrics.FilesListed, len(entries))

	selected := selectFiles(entries, selection.NewFilter(request.ExclusionPatterns))
	runner.recorder.AddFiles(metrics.FilesSelected, len(selected))
	logger.Info("repository tree listed", zap.Int("entries", len(entries)), zap.Int("selected", len(selected)))
	if len(selected) == 0 {
		return Result{}, ErrNoCompatibleFiles
	}

	stageStart = time.Now()
	resolved, resolveErr := runner.resolveAll(ctx, coordinates, selected)
	runner.recorder.ObserveStage(metrics.StageContent, time.Since(stageStart))
	if resolveErr != nil {
		return Result{}, resolveErr
	}
	runner.recorder.AddFiles(metrics.FilesResolved, len(resolved))

	stageStart = time.Now()
	documentText := document.Assemble(resolved)
	runner.recorder.ObserveStage(metrics.StageAssemble, time.Since(stageStart))
	if documentText == "" {
		return Result{}, ErrNoCompatibleFiles
	}
	runner.recorder.AddDocumentBytes(len(documentText))

	summary := runner.summarize(logger, resolved, documentText)
	logger.Info("document assembled",
		zap.Int("files", summary.TotalFiles),
		zap.String("size", summary.TotalSize),
		zap.Int("tokens", summary.TotalTokens),
	)
	return Result{
		Coordinates: coordinates,
		Document:    documentText,
		Artifact:    document.NewArtifact(coordinates, documentText),
		Summary:     summary,
	}, nil
}

// selectFiles keeps blobs that pass filter, preserving tree order.
func selectFiles(entries []types.TreeEntry, filter selection.Filter) []string {
	selected := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsBlob() && filter.Include(entry.Path) {
			selected = append(selected, entry.Path)
		}
	}
	return selected
}

// resolveAll fetches every selected path. Results are returned in the order of paths regardless of
// the worker count.
func (runner *Runner) resolveAll(ctx context.Context, coordinates types.Coordinates, paths []string) ([]types.ResolvedFile, error) {
	resolved := make([]types.ResolvedFile, len(paths))
	if runner.workers <= defaultWorkerCount {
		for index, filePath := range paths {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			file, resolveErr := runner.forge.Resolve(ctx, coordinates, filePath)
			if resolveErr != nil {
				return nil, resolveErr
			}
			resolved[index] = file
		}
		return resolved, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runner.workers)
	for index, filePath := range paths {
		index, filePath := index, filePath
		group.Go(func() error {
			if ctxErr := groupCtx.Err(); ctxErr != nil {
				return ctxErr
			}
			file, resolveErr := runner.forge.Resolve(groupCtx, coordinates, filePath)
			if resolveErr != nil {
				return resolveErr
			}
			resolved[index] = file
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}
	return resolved, nil
}

func (runner *Runner) summarize(logger *zap.Logger, files []types.ResolvedFile, documentText string) types.OutputSummary {
	summary := types.OutputSummary{
		TotalFiles: len(files),
		TotalBytes: int64(len(documentText)),
		TotalSize:  utils.FormatFileSize(int64(len(documentText))),
	}
	if runner.counter == nil {
		return summary
	}
	countResult, countErr := tokenizer.CountText(runner.counter, documentText)
	if countErr != nil {
		logger.Warn("token estimate unavailable", zap.Error(countErr))
		return summary
	}
	if countResult.Counted {
		summary.TotalTokens = countResult.Tokens
		summary.Model = runner.model
		if summary.Model == "" {
			summary.Model = runner.counter.Name()
		}
	}
	return summary
}
