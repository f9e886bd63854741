package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgsOrder(t *testing.T) {
	inv := Invocation{
		ModelPath: "/tmp/m.jpg",
		ClothPath: "/tmp/c.jpg",
		ModelType: "dc",
		Category:  1,
		Scale:     2.0,
		Sample:    4,
		OutputDir: "/srv/images_output/1/abc",
	}
	assert.Equal(t, []string{
		"--model_path", "/tmp/m.jpg",
		"--cloth_path", "/tmp/c.jpg",
		"--model_type", "dc",
		"--category", "1",
		"--scale", "2",
		"--sample", "4",
		"--outputDir", "/srv/images_output/1/abc",
	}, inv.BuildArgs())
}

func TestBuildArgsExtended(t *testing.T) {
	inv := Invocation{
		ModelPath: "/w/model.png",
		ClothPath: "/w/cloth.png",
		ModelType: "hd",
		Category:  0,
		Scale:     1.5,
		Sample:    1,
		OutputDir: "/w",
		Extended:  true,
		Step:      20,
		GPUID:     0,
		Seed:      -1,
	}
	args := inv.BuildArgs()
	assert.Equal(t, []string{
		"--model_path", "/w/model.png",
		"--cloth_path", "/w/cloth.png",
		"--model_type", "hd",
		"--category", "0",
		"--scale", "1.5",
		"--sample", "1",
		"--step", "20",
		"--gpu_id", "0",
		"--seed", "-1",
		"--outputDir", "/w",
	}, args)
}

// helperRunner routes the tool command through this test binary.
func helperRunner(t *testing.T, mode string) (*ExecRunner, *[]string) {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		return exec.CommandContext(ctx, os.Args[0], helperArgs...)
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &ExecRunner{
		Python:  "python",
		Script:  "run_ootd.py",
		WorkDir: t.TempDir(),
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "OOTD_HELPER_MODE=" + mode},
	}, &captured
}

func TestExecRunnerSuccess(t *testing.T) {
	runner, captured := helperRunner(t, "success")
	out := t.TempDir()

	res, err := runner.Run(context.Background(), Invocation{
		ModelPath: "/tmp/m.jpg", ClothPath: "/tmp/c.jpg", ModelType: "dc",
		Category: 1, Scale: 2, Sample: 2, OutputDir: out,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "python", (*captured)[0])
	script, _ := filepath.Abs("run_ootd.py")
	assert.Equal(t, script, (*captured)[1])

	paths, err := ParseGeneratedImages(res.Stdout)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "out_dc_0.png"), filepath.Join(out, "out_dc_1.png")}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	runner, _ := helperRunner(t, "oom")
	res, err := runner.Run(context.Background(), Invocation{OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "CUDA OOM", res.Stderr)
}

func TestExecRunnerPassesDeviceToChildOnly(t *testing.T) {
	runner, _ := helperRunner(t, "env")
	runner.CUDADevices = "9"
	before := os.Getenv("CUDA_VISIBLE_DEVICES")

	res, err := runner.Run(context.Background(), Invocation{OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "9", strings.TrimSpace(res.Stdout))
	assert.Equal(t, before, os.Getenv("CUDA_VISIBLE_DEVICES"))
}

func TestExecRunnerRelativeScriptWithWorkDir(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	require.NoError(t, os.MkdirAll("run", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("run", "run_ootd.py"), []byte("print()"), 0o644))

	runner, captured := helperRunner(t, "script")
	runner.Script = filepath.Join("run", "run_ootd.py")
	runner.WorkDir = "run"

	res, err := runner.Run(context.Background(), Invocation{OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	want := filepath.Join(cwd, "run", "run_ootd.py")
	assert.Equal(t, want, (*captured)[1])
	assert.Equal(t, want, strings.TrimSpace(res.Stdout))
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	runner := &ExecRunner{
		Python:  filepath.Join(t.TempDir(), "no-such-python"),
		Script:  "run_ootd.py",
		WorkDir: t.TempDir(),
	}
	_, err := runner.Run(context.Background(), Invocation{OutputDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start try-on tool")
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	flags := map[string]string{}
	for i := 0; i+1 < len(args); i++ {
		if strings.HasPrefix(args[i], "--") {
			flags[args[i]] = args[i+1]
		}
	}

	switch os.Getenv("OOTD_HELPER_MODE") {
	case "success":
		sample := 1
		fmt.Sscanf(flags["--sample"], "%d", &sample)
		var paths []string
		for i := 0; i < sample; i++ {
			p := filepath.Join(flags["--outputDir"], fmt.Sprintf("out_%s_%d.png", flags["--model_type"], i))
			if err := os.WriteFile(p, []byte(fmt.Sprintf("image-%d", i)), 0o644); err != nil {
				fmt.Fprint(os.Stderr, err)
				os.Exit(2)
			}
			paths = append(paths, p)
		}
		fmt.Println("Loading pipeline components...")
		fmt.Println(FormatGeneratedImages(paths))
		os.Exit(0)
	case "oom":
		fmt.Fprint(os.Stderr, "CUDA OOM")
		os.Exit(1)
	case "script":
		// args[0] is the script; it must open from the tool's own cwd.
		if _, err := os.Stat(args[0]); err != nil {
			fmt.Fprint(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println(args[0])
		os.Exit(0)
	case "env":
		fmt.Println(os.Getenv("CUDA_VISIBLE_DEVICES"))
		os.Exit(0)
	}
	os.Exit(3)
}
