package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/export"
)

func TestExportEDL_NoCutList(t *testing.T) {
	h := newHarness(t)
	rr := h.mustDo(t, http.MethodPost, "/export/edl", export.Request{ProjectName: "match"}, http.StatusConflict)
	if resp := decodeJSON[ErrorResponse](t, rr); resp.Code != "NO_CUT_LIST" {
		t.Errorf("code = %q, want NO_CUT_LIST", resp.Code)
	}
}

func TestExportEDL_FromOverlay(t *testing.T) {
	h := newHarness(t)
	h.toCreate(t)
	h.mustDo(t, http.MethodPut, "/timing/0", ShiftRequest{Field: "end", Value: "1"}, http.StatusOK)

	resp := decodeJSON[export.Response](t, h.mustDo(t, http.MethodPost, "/export/edl",
		export.Request{ProjectName: "Match Highlights", FrameRate: 25}, http.StatusOK))

	if resp.ClipCount != 2 || resp.Format != "edl" {
		t.Errorf("response = %+v", resp)
	}
	if filepath.Dir(resp.OutputPath) != h.exportDir {
		t.Errorf("output path %q not in default dir %q", resp.OutputPath, h.exportDir)
	}
	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("read edl: %v", err)
	}
	edl := string(data)
	if !strings.Contains(edl, "TITLE: Match Highlights") {
		t.Errorf("edl missing title:\n%s", edl)
	}
	// first cut is "opening" 0s..4s with a +1s end shift: 5s at 25fps
	if !strings.Contains(edl, "00:00:05:00") {
		t.Errorf("edl missing shifted out point:\n%s", edl)
	}
}

func TestExportEDL_AfterRender(t *testing.T) {
	h := newHarness(t)
	h.toCreate(t)
	h.mustDo(t, http.MethodPost, "/create", nil, http.StatusOK)

	outDir := t.TempDir()
	resp := decodeJSON[export.Response](t, h.mustDo(t, http.MethodPost, "/export/edl",
		export.Request{ProjectName: "final", OutputDir: outDir}, http.StatusOK))
	if resp.OutputPath != filepath.Join(outDir, "final.edl") {
		t.Errorf("output path = %q", resp.OutputPath)
	}
}

func TestExportEDL_Validation(t *testing.T) {
	h := newHarness(t)
	h.toCreate(t)

	tests := []struct {
		name string
		req  export.Request
	}{
		{"missing project name", export.Request{ProjectName: "   "}},
		{"traversal in output dir", export.Request{ProjectName: "x", OutputDir: "/tmp/../etc"}},
		{"missing output dir", export.Request{ProjectName: "x", OutputDir: filepath.Join(t.TempDir(), "nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.mustDo(t, http.MethodPost, "/export/edl", tt.req, http.StatusBadRequest)
			if resp := decodeJSON[ErrorResponse](t, rr); resp.Code != "VALIDATION" {
				t.Errorf("code = %q, want VALIDATION", resp.Code)
			}
		})
	}
}
