package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the api process needs. Values come from the
// environment, optionally primed from .env files.
type Config struct {
	Env       string
	Port      string
	SentryDSN string

	// OutputRoot is the parent of every per-request workspace.
	OutputRoot string

	Python       string
	Script       string
	WorkDir      string
	ExtendedArgs bool
	// CUDADevices is placed in the child's CUDA_VISIBLE_DEVICES. Empty inherits.
	CUDADevices string
	GPUID       int

	DefaultSample int
	DefaultStep   int
	DefaultSeed   int

	StrictResults     bool
	GenerationTimeout time.Duration
	DownloadTimeout   time.Duration
	MaxDownloadBytes  int64

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
}

// Load reads .env and .env.local if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() (Config, error) {
	var errs []string
	c := Config{
		Env:               GetEnv("ENV", "local"),
		Port:              GetEnv("PORT", "8000"),
		SentryDSN:         GetEnv("SENTRY_DSN", ""),
		OutputRoot:        GetEnv("OUTPUT_ROOT", "images_output"),
		Python:            GetEnv("OOTD_PYTHON", "python"),
		Script:            GetEnv("OOTD_SCRIPT", "run_ootd.py"),
		WorkDir:           GetEnv("OOTD_WORKDIR", ""),
		CUDADevices:       GetEnv("CUDA_VISIBLE_DEVICES", ""),
		R2AccountID:       GetEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     GetEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: GetEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      GetEnv("R2_BUCKET_NAME", ""),
	}
	c.ExtendedArgs = getBool("OOTD_EXTENDED_ARGS", false, &errs)
	c.GPUID = getInt("OOTD_GPU_ID", 0, &errs)
	c.DefaultSample = getInt("DEFAULT_SAMPLE", 4, &errs)
	c.DefaultStep = getInt("DEFAULT_STEP", 20, &errs)
	c.DefaultSeed = getInt("DEFAULT_SEED", -1, &errs)
	c.StrictResults = getBool("STRICT_RESULTS", true, &errs)
	c.GenerationTimeout = getDuration("GENERATION_TIMEOUT", 0, &errs)
	c.DownloadTimeout = getDuration("DOWNLOAD_TIMEOUT", 30*time.Second, &errs)
	c.MaxDownloadBytes = int64(getInt("MAX_DOWNLOAD_BYTES", 25<<20, &errs))

	// The tool runs from WorkDir, so a relative script would resolve twice.
	if strings.TrimSpace(c.Script) != "" {
		if abs, err := filepath.Abs(c.Script); err == nil {
			c.Script = abs
		} else {
			errs = append(errs, fmt.Sprintf("OOTD_SCRIPT: %v", err))
		}
	}
	if c.WorkDir == "" {
		c.WorkDir = filepath.Dir(c.Script)
	}
	if len(errs) > 0 {
		return c, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return c, c.Validate()
}

// Validate rejects values the orchestrator cannot run with.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Script) == "":
		return fmt.Errorf("config: OOTD_SCRIPT is required")
	case strings.TrimSpace(c.Python) == "":
		return fmt.Errorf("config: OOTD_PYTHON is required")
	case strings.TrimSpace(c.OutputRoot) == "":
		return fmt.Errorf("config: OUTPUT_ROOT is required")
	case c.DefaultSample < 1:
		return fmt.Errorf("config: DEFAULT_SAMPLE must be positive, got %d", c.DefaultSample)
	case c.DefaultStep < 1:
		return fmt.Errorf("config: DEFAULT_STEP must be positive, got %d", c.DefaultStep)
	case c.GenerationTimeout < 0:
		return fmt.Errorf("config: GENERATION_TIMEOUT must not be negative")
	case c.DownloadTimeout < 0:
		return fmt.Errorf("config: DOWNLOAD_TIMEOUT must not be negative")
	case c.MaxDownloadBytes <= 0:
		return fmt.Errorf("config: MAX_DOWNLOAD_BYTES must be positive")
	}
	return nil
}

// R2Enabled reports whether object-key inputs can be resolved.
func (c Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2BucketName != ""
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

func getInt(key string, fallback int, errs *[]string) int {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return v
}

func getBool(key string, fallback bool, errs *[]string) bool {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a boolean", key, raw))
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s") or bare seconds ("90").
func getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a duration", key, raw))
		return fallback
	}
	return v
}
