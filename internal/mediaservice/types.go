package mediaservice

import "encoding/json"

// Segment is one timestamped transcript chunk produced by the segmentation
// endpoint. Fields the agent does not know about are kept in Extra and
// written back unchanged, so the service can attach its own metadata.
type Segment struct {
	VideoURL   string   `json:"videoUrl,omitempty"`
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Similarity *float64 `json:"similarity,omitempty"`
	Index      *int     `json:"index,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Snippet is a segment returned by the relevance search, carrying its
// similarity score and its index in the searched chunk list.
type Snippet = Segment

type segmentFields Segment

var segmentKeys = []string{"videoUrl", "text", "start", "end", "similarity", "index"}

func (s Segment) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(segmentFields(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(s.Extra)+len(segmentKeys))
	for k, v := range s.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	var fields segmentFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range segmentKeys {
		delete(raw, k)
	}

	*s = Segment(fields)
	s.Extra = nil
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// TimedSnippet is a snippet plus the user's timing shifts. The shifts are
// applied to Start and End by the renderer only; the canonical boundaries
// are never rewritten.
type TimedSnippet struct {
	Snippet
	ShiftStart float64 `json:"shiftStart"`
	ShiftEnd   float64 `json:"shiftEnd"`
}

// EffectiveStart returns the start boundary the renderer will cut at.
func (t TimedSnippet) EffectiveStart() float64 { return t.Start + t.ShiftStart }

// EffectiveEnd returns the end boundary the renderer will cut at.
func (t TimedSnippet) EffectiveEnd() float64 { return t.End + t.ShiftEnd }

func (t TimedSnippet) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(t.Snippet)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	if fields["shiftStart"], err = json.Marshal(t.ShiftStart); err != nil {
		return nil, err
	}
	if fields["shiftEnd"], err = json.Marshal(t.ShiftEnd); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (t *TimedSnippet) UnmarshalJSON(data []byte) error {
	var shifts struct {
		ShiftStart float64 `json:"shiftStart"`
		ShiftEnd   float64 `json:"shiftEnd"`
	}
	if err := json.Unmarshal(data, &shifts); err != nil {
		return err
	}
	var snip Snippet
	if err := json.Unmarshal(data, &snip); err != nil {
		return err
	}
	delete(snip.Extra, "shiftStart")
	delete(snip.Extra, "shiftEnd")
	if len(snip.Extra) == 0 {
		snip.Extra = nil
	}

	t.Snippet = snip
	t.ShiftStart = shifts.ShiftStart
	t.ShiftEnd = shifts.ShiftEnd
	return nil
}

// Request and response bodies of the media service.

type transcriptRequest struct {
	YoutubeURL   string `json:"youtubeUrl"`
	MaxChunkSize int    `json:"maxChunkSize"`
}

type transcriptResponse struct {
	Chunks []Segment `json:"chunks"`
}

type searchRequest struct {
	Chunks []Segment `json:"chunks"`
	Query  string    `json:"query"`
	TopK   int       `json:"topK"`
}

type searchResponse struct {
	Results []Snippet `json:"results"`
}

type refineRequest struct {
	Snippets []Snippet `json:"snippets"`
	Query    string    `json:"query"`
}

type refineResponse struct {
	Order []int `json:"order"`
}

type createRequest struct {
	YoutubeURL string         `json:"youtubeUrl"`
	Snippets   []TimedSnippet `json:"snippets"`
}

type createResponse struct {
	VideoPath string `json:"videoPath"`
}
