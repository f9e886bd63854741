package services

import (
	"context"
	"strconv"
	"time"

	"ootdapi/models"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// State is a step of one generation request. Every request ends in
// StateCleanedUp.
type State string

const (
	StateCreated        State = "created"
	StateInputsReady    State = "inputs_ready"
	StateProcessRunning State = "process_running"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
	StateCleanedUp      State = "cleaned_up"
)

type GenerationResult struct {
	Images  []string
	Paths   []string
	Skipped []string
}

type GeneratorProvider interface {
	Generate(ctx context.Context, req models.GenerationRequest) (GenerationResult, error)
}

type GeneratorOptions struct {
	OutputRoot string
	// ToolWorkDir resolves relative result paths printed by the tool.
	ToolWorkDir  string
	ExtendedArgs bool
	GPUID        int
	// StrictResults fails the request on a missing result file instead of
	// skipping it.
	StrictResults bool
	Timeout       time.Duration
}

// Generator runs one try-on request end to end: workspace, inputs, tool run,
// result parsing, encoding and cleanup.
type Generator struct {
	Runner  ToolRunner
	Inputs  *InputResolver
	Options GeneratorOptions
	Logger  zerolog.Logger
}

func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) (result GenerationResult, err error) {
	ws, err := NewWorkspace(g.Options.OutputRoot, req.MemberID)
	if err != nil {
		g.Logger.Error().Err(err).Int64("member_id", req.MemberID).Msg("workspace allocation failed")
		return GenerationResult{}, err
	}
	log := g.Logger.With().Int64("member_id", req.MemberID).Str("workspace", ws.ID).Logger()
	log.Info().Str("state", string(StateCreated)).Str("path", ws.Path).Msg("generation started")

	defer func() {
		final := StateSucceeded
		if err != nil {
			final = StateFailed
		}
		if rmErr := ws.Remove(); rmErr != nil {
			log.Error().Err(rmErr).Msg("workspace cleanup failed")
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("failure_type", "cleanup")
				scope.SetExtra("workspace", ws.Path)
				sentry.CaptureException(rmErr)
			})
		}
		log.Info().Str("state", string(StateCleanedUp)).Str("outcome", string(final)).Msg("generation finished")
	}()

	if g.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Options.Timeout)
		defer cancel()
	}

	inputs, err := g.Inputs.Resolve(ctx, ws, req.ModelImagePath, req.ClothImagePath)
	if err != nil {
		log.Error().Err(err).Msg("input acquisition failed")
		return GenerationResult{}, err
	}
	log.Info().Str("state", string(StateInputsReady)).Str("model", inputs.ModelPath).Str("cloth", inputs.ClothPath).Msg("inputs ready")

	inv := Invocation{
		ModelPath: inputs.ModelPath,
		ClothPath: inputs.ClothPath,
		ModelType: req.ModelType,
		Category:  req.Category,
		Scale:     req.Scale,
		Sample:    req.Sample,
		OutputDir: ws.Path,
		Extended:  g.Options.ExtendedArgs,
		Step:      req.Step,
		GPUID:     g.Options.GPUID,
		Seed:      req.Seed,
	}
	log.Info().Str("state", string(StateProcessRunning)).Msg("running try-on tool")
	started := time.Now()
	run, runErr := g.Runner.Run(ctx, inv)
	log.Info().
		Strs("args", run.Args).
		Int("exit_code", run.ExitCode).
		Dur("duration", time.Since(started)).
		Str("stdout", run.Stdout).
		Str("stderr", run.Stderr).
		Msg("try-on tool exited")
	if runErr != nil {
		return GenerationResult{}, wrap(ErrProcess, "", runErr)
	}
	if run.ExitCode != 0 {
		detail := run.Stderr
		if detail == "" {
			detail = "try-on tool exited with status " + strconv.Itoa(run.ExitCode)
		}
		return GenerationResult{}, wrap(ErrProcess, detail, nil)
	}

	paths, err := ParseGeneratedImages(run.Stdout)
	if err != nil {
		log.Warn().Msg("no result marker in tool output")
		return GenerationResult{}, err
	}

	images, skipped, err := encodeResults(paths, g.Options.ToolWorkDir, g.Options.StrictResults)
	if err != nil {
		log.Error().Err(err).Msg("encoding results failed")
		return GenerationResult{}, err
	}
	for _, p := range skipped {
		log.Warn().Str("path", p).Msg("result file missing, skipped")
	}
	if len(images) == 0 {
		return GenerationResult{}, wrap(ErrNoResults, "No images generated", nil)
	}
	return GenerationResult{Images: images, Paths: paths, Skipped: skipped}, nil
}

var _ GeneratorProvider = (*Generator)(nil)
