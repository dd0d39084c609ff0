package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultPistonURL is the public Piston instance
const DefaultPistonURL = "https://emkc.org/api/v2/piston"

// PistonConfig holds Piston executor configuration
type PistonConfig struct {
	URL     string
	Timeout time.Duration
}

// PistonExecutor runs code through a Piston HTTP API
type PistonExecutor struct {
	url       string
	client    *http.Client
	languages map[string]LanguageConfig
}

// NewPistonExecutor creates a new Piston executor
func NewPistonExecutor(cfg PistonConfig) *PistonExecutor {
	if cfg.URL == "" {
		cfg.URL = DefaultPistonURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}

	langs := make(map[string]LanguageConfig)
	for lang, lc := range DefaultLanguageConfigs() {
		langs[string(lang)] = lc
	}

	return &PistonExecutor{
		url:       strings.TrimRight(cfg.URL, "/"),
		client:    &http.Client{Timeout: cfg.Timeout},
		languages: langs,
	}
}

func (e *PistonExecutor) Name() string {
	return "piston"
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonError struct {
	Message string `json:"message"`
}

// Run posts the program to {url}/execute
func (e *PistonExecutor) Run(ctx context.Context, req RunRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fileName, _ := req.Language.SourceFile()

	body, err := json.Marshal(pistonRequest{
		Language: e.languages[string(req.Language)].PistonName,
		Version:  "*",
		Files:    []pistonFile{{Name: fileName, Content: req.Source}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("piston request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var pe pistonError
		if json.Unmarshal(data, &pe) == nil && pe.Message != "" {
			return nil, fmt.Errorf("piston error (status %d): %s", resp.StatusCode, pe.Message)
		}
		return nil, fmt.Errorf("piston error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
