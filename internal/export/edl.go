// Package export writes the highlight cut list as a CMX3600 edit decision
// list so the edit can be finished in an NLE.
package export

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
)

const (
	defaultFrameRate = 30.0
	clipNameLen      = 40
	projectNameLen   = 80
)

// BuildCuts converts timed snippets to cuts on their shifted boundaries.
// A start before zero is clamped to zero and cuts with no duration are
// skipped, matching what the renderer accepts.
func BuildCuts(snippets []mediaservice.TimedSnippet) (cuts []Cut, skipped int) {
	for i, s := range snippets {
		start := math.Max(0, s.EffectiveStart())
		end := s.EffectiveEnd()
		if end <= start {
			skipped++
			continue
		}
		name := SanitizeName(s.Text, clipNameLen)
		if name == "" {
			name = fmt.Sprintf("Clip %d", i+1)
		}
		cuts = append(cuts, Cut{Name: name, SourceURL: s.VideoURL, Start: start, End: end})
	}
	return cuts, skipped
}

// GenerateEDL renders cuts back to back on the record timeline.
func GenerateEDL(cuts []Cut, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(defaultFrameRate)
	}
	dropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	if dropFrame {
		b.WriteString("FCM: DROP FRAME\n")
	} else {
		b.WriteString("FCM: NON-DROP FRAME\n")
	}
	b.WriteString("\n")

	record := 0
	for i, c := range cuts {
		srcIn := secondsToFrames(c.Start, fps)
		srcOut := secondsToFrames(c.End, fps)
		length := srcOut - srcIn

		fmt.Fprintf(&b, "%03d  %-8s %-5s C        %s %s %s %s\n",
			i+1, "AX", "V",
			timecode(srcIn, fps), timecode(srcOut, fps),
			timecode(record, fps), timecode(record+length, fps))
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", c.Name)
		if c.SourceURL != "" {
			fmt.Fprintf(&b, "* SOURCE FILE:  %s\n", c.SourceURL)
		}
		record += length
	}
	return b.String()
}

func secondsToFrames(sec float64, fps int) int {
	return int(math.Round(sec * float64(fps)))
}

func timecode(frames, fps int) string {
	ff := frames % fps
	secs := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60, ff)
}

// Exporter writes EDL files.
type Exporter struct {
	defaultDir string
	logger     *slog.Logger
}

func NewExporter(defaultDir string, logger *slog.Logger) *Exporter {
	return &Exporter{defaultDir: defaultDir, logger: logger}
}

// Export writes the EDL for snippets and reports where it went.
func (e *Exporter) Export(req Request, snippets []mediaservice.TimedSnippet) (Response, error) {
	name := SanitizeName(req.ProjectName, projectNameLen)
	if name == "" {
		return Response{}, apperr.Validation("project_name", "is required")
	}

	dir := req.OutputDir
	if dir == "" {
		dir = e.defaultDir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Response{}, fmt.Errorf("create export dir: %w", err)
		}
	} else if err := ValidateOutputDir(dir); err != nil {
		return Response{}, err
	}

	cuts, skipped := BuildCuts(snippets)
	if len(cuts) == 0 {
		return Response{}, apperr.Validation("snippets", "no valid clips to export")
	}

	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}

	outPath := filepath.Join(dir, name+".edl")
	if err := os.WriteFile(outPath, []byte(GenerateEDL(cuts, name, frameRate)), 0644); err != nil {
		return Response{}, fmt.Errorf("write edl: %w", err)
	}

	e.logger.Info("edl exported", "path", outPath, "clips", len(cuts), "skipped", skipped)
	return Response{
		Status:     "ok",
		Format:     "edl",
		OutputPath: outPath,
		ClipCount:  len(cuts),
		Skipped:    skipped,
	}, nil
}
