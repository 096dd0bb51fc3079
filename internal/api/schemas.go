package api

import (
	"time"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/history"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/timing"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/transcript"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/videoref"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeS    int64  `json:"uptime_s"`
	ServiceURL string `json:"service_url,omitempty"`
}

type StateResponse struct {
	pipeline.State
	Videos       []videoref.Reference   `json:"videos"`
	SegmentCount int                    `json:"segmentCount"`
	Snippets     []mediaservice.Snippet `json:"snippets"`
	Query        string                 `json:"query,omitempty"`
	Primary      string                 `json:"primary,omitempty"`
	Notices      []NoticeResponse       `json:"notices,omitempty"`
}

type NoticeResponse struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Error    string `json:"error"`
}

type AddVideoRequest struct {
	URL string `json:"url"`
}

type VideosResponse struct {
	Videos []videoref.Reference `json:"videos"`
}

type FetchResponse struct {
	State        pipeline.State   `json:"state"`
	SegmentCount int              `json:"segmentCount"`
	Succeeded    int              `json:"succeeded"`
	Primary      string           `json:"primary"`
	Notices      []NoticeResponse `json:"notices,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK,omitempty"`
}

type SnippetsResponse struct {
	State    pipeline.State         `json:"state"`
	Snippets []mediaservice.Snippet `json:"snippets"`
}

type TimingResponse struct {
	Entries []timing.Entry `json:"entries"`
}

// ShiftRequest carries a shift value as the user typed it. Value may be a
// JSON string or number; anything unparseable is treated as 0.
type ShiftRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type ShiftResponse struct {
	Index int     `json:"index"`
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

type CreateResponse struct {
	State     pipeline.State `json:"state"`
	VideoPath string         `json:"videoPath"`
}

type NavigateRequest struct {
	Stage string `json:"stage"`
}

type HistoryResponse struct {
	Operations []OperationResponse `json:"operations"`
	Renders    []RenderResponse    `json:"renders"`
}

type OperationResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type RenderResponse struct {
	ID           string `json:"id"`
	OperationID  string `json:"operation_id,omitempty"`
	VideoPath    string `json:"video_path"`
	SourceURL    string `json:"source_url"`
	Query        string `json:"query"`
	SnippetCount int    `json:"snippet_count"`
	CreatedAt    string `json:"created_at"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func NoticesToResponse(notices []transcript.Notice) []NoticeResponse {
	if len(notices) == 0 {
		return nil
	}
	out := make([]NoticeResponse, len(notices))
	for i, n := range notices {
		out[i] = NoticeResponse{Position: n.Position, URL: n.URL, Error: n.Err.Error()}
	}
	return out
}

func OperationToResponse(op *history.Operation) OperationResponse {
	return OperationResponse{
		ID:        op.ID,
		Kind:      op.Kind,
		Status:    op.Status,
		Stage:     op.Stage,
		Error:     op.Error,
		CreatedAt: op.CreatedAt.Format(time.RFC3339),
		UpdatedAt: op.UpdatedAt.Format(time.RFC3339),
	}
}

func RenderToResponse(r *history.Render) RenderResponse {
	return RenderResponse{
		ID:           r.ID,
		OperationID:  r.OperationID,
		VideoPath:    r.VideoPath,
		SourceURL:    r.SourceURL,
		Query:        r.Query,
		SnippetCount: r.SnippetCount,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}
