package api

import (
	"encoding/json"
	"net/http"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/export"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
)

type Exporter interface {
	Export(req export.Request, snippets []mediaservice.TimedSnippet) (export.Response, error)
}

// exportEDLHandler writes the current cut list as an EDL: the timing overlay
// while it is being edited, otherwise the set submitted with the last render.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cuts := cfg.Pipeline.CutList()
		if len(cuts) == 0 {
			WriteError(w, http.StatusConflict, "no cut list yet; search for snippets first", "NO_CUT_LIST")
			return
		}

		resp, err := cfg.Exporter.Export(req, cuts)
		if err != nil {
			writeOpError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
