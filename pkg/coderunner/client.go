package coderunner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable wraps transport failures and non-2xx engine responses.
var ErrUnavailable = errors.New("coderunner: execution engine unavailable")

// Request is one program execution. An empty Version selects the newest
// installed runtime.
type Request struct {
	Language string
	Version  string
	Code     string
	Stdin    string
}

// Result is the engine's verdict for a run.
type Result struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Output   []string `json:"output"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode *int     `json:"exitCode,omitempty"`
	Signal   string   `json:"signal,omitempty"`
	Compile  string   `json:"compileOutput,omitempty"`
}

// Client talks to a Piston-compatible execution engine.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the engine rooted at baseURL (e.g. https://emkc.org/api/v2/piston).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type executeFile struct {
	Content string `json:"content"`
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin,omitempty"`
}

type stage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal"`
}

type executeResponse struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      stage  `json:"run"`
	Compile  *stage `json:"compile,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Execute runs the program and returns its output split into lines.
func (c *Client) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.Version == "" {
		req.Version = "*"
	}
	body, err := json.Marshal(executeRequest{
		Language: req.Language,
		Version:  req.Version,
		Files:    []executeFile{{Content: req.Code}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("encode execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var decoded executeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	result := &Result{
		Language: decoded.Language,
		Version:  decoded.Version,
		Output:   strings.Split(decoded.Run.Output, "\n"),
		Stdout:   decoded.Run.Stdout,
		Stderr:   decoded.Run.Stderr,
		ExitCode: decoded.Run.Code,
		Signal:   decoded.Run.Signal,
	}
	if decoded.Compile != nil {
		result.Compile = decoded.Compile.Output
	}
	return result, nil
}
