// Package runtime manages the local model-serving daemon: process
// supervision, readiness probing, model presence, and the wire API used for
// generation and embeddings.
package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tutorkit/pkg/logging"
)

const defaultTag = "latest"

// ModelInfo describes a model known to the serving daemon.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// PullProgress is a single progress update from a streaming model pull.
type PullProgress struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client is an HTTP client for the model-serving daemon's API.
type Client struct {
	log      logging.Logger
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the daemon at the given base endpoint,
// e.g. "http://localhost:11434".
func NewClient(log logging.Logger, endpoint string) *Client {
	return &Client{
		log:      log,
		endpoint: strings.TrimRight(endpoint, "/"),
		// Generation against a cold model can take a while, so no global
		// timeout here. Callers bound requests with contexts.
		http: &http.Client{},
	}
}

// NormalizeModelName appends the default tag if the reference has none.
// Examples:
//   - "nomic-embed-text" -> "nomic-embed-text:latest"
//   - "mistral:7b" -> "mistral:7b" (unchanged)
func NormalizeModelName(model string) string {
	if model == "" {
		return model
	}
	if !strings.Contains(model, ":") {
		return model + ":" + defaultTag
	}
	return model
}

// Version returns the daemon version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var response struct {
		Version string `json:"version"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/version", nil, &response); err != nil {
		return "", err
	}
	return response.Version, nil
}

// ListModels returns the models available locally to the daemon.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var response struct {
		Models []ModelInfo `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &response); err != nil {
		return nil, err
	}
	return response.Models, nil
}

// HasModel reports whether the given model reference is present locally.
func (c *Client) HasModel(ctx context.Context, model string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	want := NormalizeModelName(model)
	for _, m := range models {
		if NormalizeModelName(m.Name) == want {
			return true, nil
		}
	}
	return false, nil
}

// Pull downloads a model through the daemon, invoking onProgress for every
// streamed progress update. A nil onProgress discards updates.
func (c *Client) Pull(ctx context.Context, model string, onProgress func(PullProgress)) error {
	requestBody, err := json.Marshal(map[string]any{"name": model})
	if err != nil {
		return errors.Wrap(err, "marshaling pull request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/pull", bytes.NewReader(requestBody))
	if err != nil {
		return errors.Wrap(err, "creating pull request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(ErrDaemonUnavailable, "pulling %s: %v", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Wrapf(ErrPullFailed, "pulling %s: status %s: %s", model, resp.Status, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var progress PullProgress
		if err := json.Unmarshal(line, &progress); err != nil {
			c.log.Warnf("Skipping unparsable pull progress line: %v", err)
			continue
		}
		if progress.Error != "" {
			return errors.Wrapf(ErrPullFailed, "pulling %s: %s", model, progress.Error)
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading pull stream for %s", model)
	}
	return nil
}

// GenerateRequest holds the parameters for a text generation call.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Generate runs a non-streaming completion against the given model.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	request := GenerateRequest{Model: model, Prompt: prompt, Stream: false}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", request, &response); err != nil {
		return "", err
	}
	return response.Response, nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	request := map[string]string{"model": model, "prompt": text}
	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/embeddings", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embedding) == 0 {
		return nil, errors.Errorf("empty embedding returned by model %s", model)
	}
	return response.Embedding, nil
}

// doJSON performs a request with an optional JSON body and decodes a JSON
// response into out (which may be nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(ErrDaemonUnavailable, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		raw, _ := io.ReadAll(resp.Body)
		return errors.Wrapf(ErrModelNotFound, "%s %s: %s", method, path, strings.TrimSpace(string(raw)))
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return errors.Errorf("%s %s: unexpected status %s: %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// Endpoint returns the daemon base URL this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}
