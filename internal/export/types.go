package export

// Request asks for an EDL of the current cut list. OutputDir is optional;
// the exporter's default directory is used when it is empty.
type Request struct {
	ProjectName string  `json:"project_name"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir,omitempty"`
}

// Cut is one EDL event in seconds on the source timeline.
type Cut struct {
	Name      string
	SourceURL string
	Start     float64
	End       float64
}

func (c Cut) Duration() float64 { return c.End - c.Start }

type Response struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
	Skipped    int    `json:"skipped"`
}
