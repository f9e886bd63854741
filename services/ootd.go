package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

var commandContext = exec.CommandContext

// Invocation is the full argument set for one run of the try-on tool.
type Invocation struct {
	ModelPath string
	ClothPath string
	ModelType string
	Category  int
	Scale     float64
	Sample    int
	OutputDir string

	// Extended adds --step, --gpu_id and --seed. Seed -1 asks the tool for a
	// random seed.
	Extended bool
	Step     int
	GPUID    int
	Seed     int
}

// BuildArgs returns the tool flags in the order the tool expects them.
func (inv Invocation) BuildArgs() []string {
	args := []string{
		"--model_path", inv.ModelPath,
		"--cloth_path", inv.ClothPath,
		"--model_type", inv.ModelType,
		"--category", strconv.Itoa(inv.Category),
		"--scale", strconv.FormatFloat(inv.Scale, 'f', -1, 64),
		"--sample", strconv.Itoa(inv.Sample),
	}
	if inv.Extended {
		args = append(args,
			"--step", strconv.Itoa(inv.Step),
			"--gpu_id", strconv.Itoa(inv.GPUID),
			"--seed", strconv.Itoa(inv.Seed),
		)
	}
	return append(args, "--outputDir", inv.OutputDir)
}

// ToolResult is everything observable about a finished tool run.
type ToolResult struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

type ToolRunner interface {
	Run(ctx context.Context, inv Invocation) (ToolResult, error)
}

// ExecRunner launches the tool as `<Python> <Script> <flags...>` in WorkDir.
// A relative Script is resolved against the server's working directory.
type ExecRunner struct {
	Python  string
	Script  string
	WorkDir string
	// CUDADevices sets CUDA_VISIBLE_DEVICES for the child only.
	CUDADevices string
	// Env is appended to the inherited environment.
	Env []string
}

// Run blocks until the tool exits. A non-zero exit is reported through
// ToolResult.ExitCode with a nil error; the error is only set when the
// process could not be started or was killed by ctx.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (ToolResult, error) {
	script, err := filepath.Abs(r.Script)
	if err != nil {
		return ToolResult{}, fmt.Errorf("resolve try-on script: %w", err)
	}
	args := append([]string{script}, inv.BuildArgs()...)
	cmd := commandContext(ctx, r.Python, args...) //nolint:gosec
	cmd.Dir = r.WorkDir
	cmd.Env = append(os.Environ(), r.Env...)
	if r.CUDADevices != "" {
		cmd.Env = append(cmd.Env, "CUDA_VISIBLE_DEVICES="+r.CUDADevices)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result := ToolResult{
		Args:   append([]string{r.Python}, args...),
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("try-on tool interrupted: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("start try-on tool: %w", err)
	}
	return result, nil
}

var _ ToolRunner = (*ExecRunner)(nil)
