package ui

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

const iconSize = 32

var (
	colorIdle  = color.RGBA{R: 0x2e, G: 0x9e, B: 0x5b, A: 0xff}
	colorBusy  = color.RGBA{R: 0xe8, G: 0xa3, B: 0x17, A: 0xff}
	colorError = color.RGBA{R: 0xd1, G: 0x3b, B: 0x3b, A: 0xff}
	colorTrack = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
)

// renderIcon draws the tray icon for st: a filled dot coloured by busy or
// error state inside a ring that fills as the pipeline advances.
func renderIcon(st pipeline.State) ([]byte, error) {
	dc := gg.NewContext(iconSize, iconSize)
	c := float64(iconSize) / 2

	dc.SetColor(colorTrack)
	dc.SetLineWidth(3)
	dc.DrawCircle(c, c, c-2)
	dc.Stroke()

	if frac := stageFraction(st.Stage); frac > 0 {
		start := -math.Pi / 2
		dc.SetColor(color.White)
		dc.DrawArc(c, c, c-2, start, start+2*math.Pi*frac)
		dc.Stroke()
	}

	dc.SetColor(statusColor(st))
	dc.DrawCircle(c, c, c-8)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

func statusColor(st pipeline.State) color.Color {
	switch {
	case st.Busy:
		return colorBusy
	case st.LastError != "":
		return colorError
	default:
		return colorIdle
	}
}

// stageFraction is how far through the pipeline stage is, from 0 at
// welcome to 1 at preview.
func stageFraction(stage pipeline.Stage) float64 {
	return float64(stage-pipeline.StageWelcome) / float64(pipeline.StagePreview-pipeline.StageWelcome)
}
