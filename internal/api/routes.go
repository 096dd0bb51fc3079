package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/playback"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/timing"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/transcript"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/videoref"
)

const defaultHistoryLimit = 50

// Pipeline is the controller surface the API drives.
type Pipeline interface {
	State() pipeline.State
	Videos() []videoref.Reference
	Segments() []mediaservice.Segment
	Snippets() []mediaservice.Snippet
	Notices() []transcript.Notice
	Query() string
	Primary() string
	Timing() []timing.Entry
	CutList() []mediaservice.TimedSnippet

	Accept(ctx context.Context) error
	AddVideo(ctx context.Context, rawURL string) (videoref.Reference, error)
	RemoveVideo(ctx context.Context, index int) (videoref.Reference, error)
	Fetch(ctx context.Context) (transcript.Result, error)
	Search(ctx context.Context, query string, topK int) ([]mediaservice.Snippet, error)
	Refine(ctx context.Context) ([]mediaservice.Snippet, error)
	SkipRefine(ctx context.Context) error
	SetShift(index int, field, value string) (float64, error)
	Create(ctx context.Context) (string, error)
	Navigate(ctx context.Context, to pipeline.Stage) error
	Reset(ctx context.Context) error
}

type ArtifactCache interface {
	Ensure(ctx context.Context, videoPath string) (string, error)
}

type FileServer interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackOnly(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))
	r.Get("/state", stateHandler(cfg))
	r.Post("/accept", acceptHandler(cfg))

	r.Get("/videos", listVideosHandler(cfg))
	r.Post("/videos", addVideoHandler(cfg))
	r.Delete("/videos/{index}", removeVideoHandler(cfg))

	r.Post("/fetch", fetchHandler(cfg))
	r.Post("/search", searchHandler(cfg))
	r.Post("/refine", refineHandler(cfg))
	r.Post("/refine/skip", skipRefineHandler(cfg))

	r.Get("/timing", timingHandler(cfg))
	r.Put("/timing/{index}", setShiftHandler(cfg))
	r.Post("/create", createHandler(cfg))

	r.Post("/navigate", navigateHandler(cfg))
	r.Post("/reset", resetHandler(cfg))

	r.Get("/artifact", artifactHandler(cfg))
	r.Head("/artifact", artifactHandler(cfg))
	r.Post("/export/edl", exportEDLHandler(cfg))
	r.Get("/history", historyHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Version:    cfg.Version,
			UptimeS:    uptime,
			ServiceURL: cfg.ServiceURL,
		})
	}
}

func stateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := cfg.Pipeline
		WriteJSON(w, http.StatusOK, StateResponse{
			State:        p.State(),
			Videos:       nonNil(p.Videos()),
			SegmentCount: len(p.Segments()),
			Snippets:     nonNil(p.Snippets()),
			Query:        p.Query(),
			Primary:      p.Primary(),
			Notices:      NoticesToResponse(p.Notices()),
		})
	}
}

func acceptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Pipeline.Accept(r.Context()); err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Pipeline.State())
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, VideosResponse{Videos: nonNil(cfg.Pipeline.Videos())})
	}
}

func addVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		ref, err := cfg.Pipeline.AddVideo(r.Context(), req.URL)
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ref)
	}
}

func removeVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		if _, err := cfg.Pipeline.RemoveVideo(r.Context(), index); err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func fetchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Pipeline.Fetch(r.Context())
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, FetchResponse{
			State:        cfg.Pipeline.State(),
			SegmentCount: len(res.Segments),
			Succeeded:    res.Succeeded,
			Primary:      res.Primary,
			Notices:      NoticesToResponse(res.Notices),
		})
	}
}

func searchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		snippets, err := cfg.Pipeline.Search(r.Context(), req.Query, req.TopK)
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnippetsResponse{State: cfg.Pipeline.State(), Snippets: nonNil(snippets)})
	}
}

func refineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snippets, err := cfg.Pipeline.Refine(r.Context())
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnippetsResponse{State: cfg.Pipeline.State(), Snippets: nonNil(snippets)})
	}
}

func skipRefineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Pipeline.SkipRefine(r.Context()); err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnippetsResponse{
			State:    cfg.Pipeline.State(),
			Snippets: nonNil(cfg.Pipeline.Snippets()),
		})
	}
}

func timingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, TimingResponse{Entries: nonNil(cfg.Pipeline.Timing())})
	}
}

func setShiftHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		var req ShiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		value, err := cfg.Pipeline.SetShift(index, req.Field, shiftText(req.Value))
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ShiftResponse{Index: index, Field: req.Field, Value: value})
	}
}

func createHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoPath, err := cfg.Pipeline.Create(r.Context())
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, CreateResponse{State: cfg.Pipeline.State(), VideoPath: videoPath})
	}
}

func navigateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NavigateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		stage, err := pipeline.ParseStage(req.Stage)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
			return
		}

		if err := cfg.Pipeline.Navigate(r.Context(), stage); err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Pipeline.State())
	}
}

func resetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Pipeline.Reset(r.Context()); err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Pipeline.State())
	}
}

func artifactHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoPath := cfg.Pipeline.State().ArtifactPath
		if videoPath == "" {
			writeOpError(w, cfg.Logger, playback.ErrNoArtifact)
			return
		}

		localPath, err := cfg.Artifacts.Ensure(r.Context(), videoPath)
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}

		if err := cfg.Playback.ServeFile(w, r, localPath); err != nil {
			cfg.Logger.Error("playback error", "error", err, "video_path", videoPath)
		}
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		ops, err := cfg.History.ListOperations(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list operations", "INTERNAL_ERROR")
			return
		}
		renders, err := cfg.History.ListRenders(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list renders", "INTERNAL_ERROR")
			return
		}

		resp := HistoryResponse{
			Operations: make([]OperationResponse, len(ops)),
			Renders:    make([]RenderResponse, len(renders)),
		}
		for i, op := range ops {
			resp.Operations[i] = OperationToResponse(op)
		}
		for i, rd := range renders {
			resp.Renders[i] = RenderToResponse(rd)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// indexParam reads the {index} path parameter, answering 400 itself when it
// is not an integer.
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		err := apperr.Validation("index", fmt.Sprintf("%q is not an integer", raw))
		WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION")
		return 0, false
	}
	return index, true
}

// shiftText turns a decoded JSON value back into the text the timing
// overlay coerces.
func shiftText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
