package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/playback"
)

// errorStatus maps an operation error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	var capErr *apperr.CapacityError
	var remote *mediaservice.RemoteError

	switch {
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, pipeline.ErrWrongStage):
		return http.StatusConflict, "WRONG_STAGE"
	case errors.Is(err, pipeline.ErrStageLocked):
		return http.StatusForbidden, "STAGE_LOCKED"
	case errors.Is(err, pipeline.ErrNoSegments):
		return http.StatusBadGateway, "NO_SEGMENTS"
	case errors.Is(err, playback.ErrNoArtifact):
		return http.StatusNotFound, "NO_ARTIFACT"
	case errors.As(err, &capErr):
		return http.StatusBadRequest, "CAPACITY"
	case apperr.IsValidation(err):
		return http.StatusBadRequest, "VALIDATION"
	case apperr.IsRange(err):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &remote):
		if errors.Is(err, context.Canceled) {
			return http.StatusServiceUnavailable, "CANCELED"
		}
		return http.StatusBadGateway, "REMOTE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeOpError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var remote *mediaservice.RemoteError
	if errors.As(err, &remote) {
		resp.Retryable = remote.IsRetryable()
	}
	if status == http.StatusInternalServerError {
		logger.Error("operation failed", "error", err)
		resp.Error = "internal server error"
	}
	WriteJSON(w, status, resp)
}
