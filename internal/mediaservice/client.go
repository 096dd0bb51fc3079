// Package mediaservice is the HTTP client for the remote media service that
// segments transcripts, scores snippets, orders them and renders the final
// highlight video. Every JSON endpoint answers with either a payload or an
// {"error": "..."} envelope; an envelope error fails the call whatever the
// HTTP status.
package mediaservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	pathTranscriptChunks = "/api/transcript-chunks"
	pathSearchSnippets   = "/api/search-snippets"
	pathRefineSnippets   = "/api/refine-snippets"
	pathCreateVideo      = "/api/create-video"
	pathDownloadVideo    = "/api/download-video/"

	maxResponseBytes = 64 << 20
	maxExcerptBytes  = 4096

	DefaultTimeout = 10 * time.Minute
)

// Client is the media service contract the pipeline consumes.
type Client interface {
	TranscriptChunks(ctx context.Context, youtubeURL string, maxChunkSize int) ([]Segment, error)
	SearchSnippets(ctx context.Context, chunks []Segment, query string, topK int) ([]Snippet, error)
	RefineSnippets(ctx context.Context, snippets []Snippet, query string) ([]int, error)
	CreateVideo(ctx context.Context, youtubeURL string, snippets []TimedSnippet) (string, error)
	DownloadVideo(ctx context.Context, videoPath string, w io.Writer) (int64, error)
}

// HTTPClient talks to the media service over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *HTTPClient) TranscriptChunks(ctx context.Context, youtubeURL string, maxChunkSize int) ([]Segment, error) {
	var resp transcriptResponse
	err := c.postJSON(ctx, "transcript", pathTranscriptChunks, transcriptRequest{
		YoutubeURL:   youtubeURL,
		MaxChunkSize: maxChunkSize,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Chunks, nil
}

func (c *HTTPClient) SearchSnippets(ctx context.Context, chunks []Segment, query string, topK int) ([]Snippet, error) {
	var resp searchResponse
	err := c.postJSON(ctx, "search", pathSearchSnippets, searchRequest{
		Chunks: chunks,
		Query:  query,
		TopK:   topK,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *HTTPClient) RefineSnippets(ctx context.Context, snippets []Snippet, query string) ([]int, error) {
	var resp refineResponse
	err := c.postJSON(ctx, "refine", pathRefineSnippets, refineRequest{
		Snippets: snippets,
		Query:    query,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Order, nil
}

func (c *HTTPClient) CreateVideo(ctx context.Context, youtubeURL string, snippets []TimedSnippet) (string, error) {
	var resp createResponse
	err := c.postJSON(ctx, "create", pathCreateVideo, createRequest{
		YoutubeURL: youtubeURL,
		Snippets:   snippets,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.VideoPath == "" {
		return "", &RemoteError{Op: "create", StatusCode: http.StatusOK, Message: "response carried no videoPath"}
	}
	return resp.VideoPath, nil
}

// DownloadVideo streams the rendered artifact named by the final path
// component of videoPath into w.
func (c *HTTPClient) DownloadVideo(ctx context.Context, videoPath string, w io.Writer) (int64, error) {
	name := ArtifactName(videoPath)
	if name == "" {
		return 0, &RemoteError{Op: "download", Message: "empty video path"}
	}

	reqURL := c.baseURL + pathDownloadVideo + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.logger.Info("downloading artifact", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &RemoteError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxExcerptBytes))
		msg := envelopeMessage(body)
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return 0, &RemoteError{Op: "download", StatusCode: resp.StatusCode, Message: msg}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &RemoteError{Op: "download", StatusCode: resp.StatusCode, Err: err}
	}
	return n, nil
}

// ArtifactName returns the final path component of a service-side video
// path, the identifier the download endpoint expects.
func ArtifactName(videoPath string) string {
	p := strings.ReplaceAll(strings.TrimSpace(videoPath), "\\", "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func (c *HTTPClient) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("media service unreachable", "op", op, "request_id", requestID, "error", err)
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("media service call",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"request_bytes", len(body),
		"response_bytes", len(respBody),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if msg := envelopeMessage(respBody); msg != "" {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: excerpt(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// envelopeMessage returns the text of a top-level "error" field, or "" when
// the body carries none. A present non-string error value is reported raw.
func envelopeMessage(body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	raw := bytes.TrimSpace(env.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "unspecified error"
		}
		return s
	}
	return string(raw)
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxExcerptBytes {
		s = s[:maxExcerptBytes]
	}
	return s
}
