package test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"ootdapi/models"
	"ootdapi/services"

	"github.com/labstack/echo/v4"
)

func NewFormRequest(method string, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Add(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Add("Accept", "application/json")
	return req
}

func NewMultipartRequest(method string, target string, form url.Values) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			if err := writer.WriteField(key, v); err != nil {
				log.Fatalf("write multipart field %s: %v", key, err)
			}
		}
	}
	writer.Close()
	req := httptest.NewRequest(method, target, &body)
	req.Header.Add(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Add("Accept", "application/json")
	return req
}

// GenerationForm is the smallest valid POST /generate body.
func GenerationForm() url.Values {
	return url.Values{
		"memberId":       {"1"},
		"modelImagePath": {"/tmp/m.jpg"},
		"clothImagePath": {"/tmp/c.jpg"},
		"category":       {"1"},
	}
}

func Do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code >= 300 {
		log.Printf("%s", rec.Body.String())
	}
	return rec
}

// GeneratorMock records requests and answers with Result or Err.
type GeneratorMock struct {
	mu       sync.Mutex
	Requests []models.GenerationRequest
	Result   services.GenerationResult
	Err      error
}

func (m *GeneratorMock) Generate(ctx context.Context, req models.GenerationRequest) (services.GenerationResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	return m.Result, m.Err
}

// ToolRunnerMock answers every run with Result. When Files is set each name
// is written into the invocation's output directory first.
type ToolRunnerMock struct {
	Result ToolScript
	Err    error

	mu    sync.Mutex
	Calls []services.Invocation
}

type ToolScript struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Files are created in the output directory and announced on stdout.
	Files map[string][]byte
}

func (m *ToolRunnerMock) Run(ctx context.Context, inv services.Invocation) (services.ToolResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, inv)
	m.mu.Unlock()
	if m.Err != nil {
		return services.ToolResult{}, m.Err
	}
	stdout := m.Result.Stdout
	if len(m.Result.Files) > 0 {
		var paths []string
		for _, name := range sortedKeys(m.Result.Files) {
			p := inv.OutputDir + "/" + name
			if err := writeFile(p, m.Result.Files[name]); err != nil {
				return services.ToolResult{}, fmt.Errorf("mock tool: %w", err)
			}
			paths = append(paths, p)
		}
		stdout += services.FormatGeneratedImages(paths) + "\n"
	}
	return services.ToolResult{
		Args:     inv.BuildArgs(),
		ExitCode: m.Result.ExitCode,
		Stdout:   stdout,
		Stderr:   m.Result.Stderr,
	}, nil
}

type AWSProviderMock struct {
	MockUrl string
}

func (awsService AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}
