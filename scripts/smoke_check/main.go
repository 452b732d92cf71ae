package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type target struct {
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Status   int             `json:"status"`
	Body     json.RawMessage `json:"body,omitempty"`
	Auth     bool            `json:"auth"`
	Envelope bool            `json:"envelope"`
	Critical bool            `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target      target
	Status      int
	StatusMatch bool
	EnvelopeOK  bool
	Error       error
	Duration    time.Duration
}

func main() {
	var (
		base        string
		targetsPath string
		email       string
		password    string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke_check", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&email, "email", os.Getenv("SMOKE_EMAIL"), "Admin email used for authenticated targets")
	flag.StringVar(&password, "password", os.Getenv("SMOKE_PASSWORD"), "Admin password used for authenticated targets")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	targets, err := loadTargets(targetsPath)
	if err != nil {
		logger.Fatal("failed to load targets", zap.Error(err))
	}

	client := &http.Client{Timeout: timeout}
	var token string
	if email != "" {
		token, err = login(client, base, email, password)
		if err != nil {
			logger.Fatal("login failed", zap.String("email", email), zap.Error(err))
		}
	}

	var (
		results  []result
		breaking int
		optional int
	)
	for _, t := range targets {
		if t.Auth && token == "" {
			logger.Warn("skipping authenticated target without credentials", zap.String("path", t.Path))
			continue
		}
		res := checkTarget(client, base, token, t)
		if res.Error != nil || !res.StatusMatch || !res.EnvelopeOK {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking failures: %d, Optional failures: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, _, err := performRequest(client, base, "", target{Method: http.MethodPost, Path: "/api/v1/auth/login", Body: payload})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return "", errors.New("login response carried no access token")
	}
	return envelope.Data.AccessToken, nil
}

func checkTarget(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt, EnvelopeOK: true}
	if !tgt.Auth {
		token = ""
	}
	resp, dur, err := performRequest(client, base, token, tgt)
	res.Duration = dur
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.StatusMatch = tgt.Status == 0 || tgt.Status == resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	if tgt.Envelope {
		res.EnvelopeOK = hasEnvelope(body, resp.StatusCode)
	}
	return res
}

func performRequest(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

// hasEnvelope checks the {data,error} response shape: successes carry data,
// failures carry an error code.
func hasEnvelope(body []byte, status int) bool {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	if status >= http.StatusBadRequest {
		return env.Error != nil && env.Error.Code != ""
	}
	return len(env.Data) > 0 && env.Error == nil
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.EnvelopeOK {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d, expected %d (%s)\n", res.Status, res.Target.Status, res.Duration)
		fmt.Printf("  Envelope ok: %t | Critical: %t\n", res.EnvelopeOK, res.Target.Critical)
	}
}
