// Package generator calls the external document-generation service. Candidate
// base URLs are tried once each, in order: a connectivity failure moves on to
// the next candidate, a failure reported by a reachable candidate is final.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	PathArtifact    = "/generate"
	PathExpertPitch = "/generate-expert-pitch"
)

type Request struct {
	TeamName    string          `json:"team_name"`
	CollegeName string          `json:"college_name"`
	Content     json.RawMessage `json:"content"`
}

type Result struct {
	// URL is the public address of the generated file.
	URL string
	// Endpoint is the full address that produced it.
	Endpoint string
}

type response struct {
	Success bool   `json:"success"`
	FileURL string `json:"file_url"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

type Options struct {
	Candidates    []string
	Timeout       time.Duration
	ExpertTimeout time.Duration
	// PublicBaseURL replaces the candidate host in returned file URLs when set.
	PublicBaseURL string
	HTTPClient    *http.Client
}

type Client struct {
	candidates    []string
	timeout       time.Duration
	expertTimeout time.Duration
	publicBase    string
	http          *http.Client
}

func New(opts Options) *Client {
	candidates := make([]string, 0, len(opts.Candidates))
	seen := make(map[string]bool)
	for _, raw := range opts.Candidates {
		base := strings.TrimRight(strings.TrimSpace(raw), "/")
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		candidates = append(candidates, base)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	expert := opts.ExpertTimeout
	if expert <= 0 {
		expert = timeout
	}
	return &Client{
		candidates:    candidates,
		timeout:       timeout,
		expertTimeout: expert,
		publicBase:    strings.TrimRight(opts.PublicBaseURL, "/"),
		http:          httpClient,
	}
}

func (c *Client) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Generate produces the team's slide deck.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	return c.call(ctx, PathArtifact, c.timeout, req)
}

// GenerateExpertPitch produces the expert pitch deck. It gets a longer timeout.
func (c *Client) GenerateExpertPitch(ctx context.Context, req Request) (Result, error) {
	return c.call(ctx, PathExpertPitch, c.expertTimeout, req)
}

func (c *Client) call(ctx context.Context, endpoint string, timeout time.Duration, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode generation request: %w", err)
	}
	unreachable := &UnreachableError{}
	for _, base := range c.candidates {
		target := base + endpoint
		resp, err := c.post(ctx, target, timeout, body)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", target).Msg("generation candidate unreachable")
			unreachable.Attempts = append(unreachable.Attempts, Attempt{Endpoint: target, Err: err})
			unreachable.Last = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if !resp.Success || resp.FileURL == "" {
			msg := resp.Error
			if msg == "" {
				msg = resp.Detail
			}
			if msg == "" && resp.Success {
				msg = "file_url missing from response"
			}
			if msg == "" {
				msg = "unknown generation failure"
			}
			log.Warn().Str("endpoint", target).Str("reason", msg).Msg("generation rejected")
			return Result{}, &LogicError{Endpoint: target, Message: msg}
		}
		url := c.publicURL(base, resp.FileURL)
		log.Info().Str("endpoint", target).Str("url", url).Msg("artifact generated")
		return Result{URL: url, Endpoint: target}, nil
	}
	if unreachable.Last == nil {
		unreachable.Last = fmt.Errorf("no generation candidates configured")
	}
	return Result{}, unreachable
}

func (c *Client) post(ctx context.Context, target string, timeout time.Duration, body []byte) (response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

// publicURL keeps absolute file URLs and maps relative paths onto /outputs/.
func (c *Client) publicURL(base, fileURL string) string {
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		return fileURL
	}
	host := base
	if c.publicBase != "" {
		host = c.publicBase
	}
	return host + "/outputs/" + path.Base(strings.ReplaceAll(fileURL, "\\", "/"))
}
