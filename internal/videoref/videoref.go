// Package videoref holds the ordered, bounded list of source video
// references the pipeline works from.
package videoref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
)

// MaxReferences is the most references a session may hold.
const MaxReferences = 5

const thumbnailURLFormat = "https://img.youtube.com/vi/%s/hqdefault.jpg"

// Recognized URL shapes, tried in order. The first match wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
}

type Reference struct {
	URL          string `json:"url"`
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ExtractID returns the 11-character video id embedded in rawURL.
func ExtractID(rawURL string) (string, bool) {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func ThumbnailURL(id string) string {
	return fmt.Sprintf(thumbnailURLFormat, id)
}

// Parse validates rawURL and builds the reference for it.
func Parse(rawURL string) (Reference, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return Reference{}, apperr.Validation("url", "must not be empty")
	}
	id, ok := ExtractID(u)
	if !ok {
		return Reference{}, apperr.Validation("url", "not a recognized video URL")
	}
	return Reference{URL: u, ID: id, ThumbnailURL: ThumbnailURL(id)}, nil
}

// Store is the insertion-ordered reference list. It is not safe for
// concurrent use; the pipeline controller serializes access.
type Store struct {
	refs []Reference
}

func NewStore() *Store {
	return &Store{}
}

// Add validates rawURL and appends it. The store is unchanged on error.
func (s *Store) Add(rawURL string) (Reference, error) {
	if len(s.refs) >= MaxReferences {
		return Reference{}, &apperr.CapacityError{What: "videos", Limit: MaxReferences}
	}
	ref, err := Parse(rawURL)
	if err != nil {
		return Reference{}, err
	}
	for _, existing := range s.refs {
		if existing.ID == ref.ID {
			return Reference{}, apperr.Validation("url", "video "+ref.ID+" already added")
		}
	}
	s.refs = append(s.refs, ref)
	return ref, nil
}

// Remove deletes the reference at index, shifting later entries down.
func (s *Store) Remove(index int) (Reference, error) {
	if index < 0 || index >= len(s.refs) {
		return Reference{}, &apperr.RangeError{What: "video", Index: index, Len: len(s.refs)}
	}
	removed := s.refs[index]
	s.refs = append(s.refs[:index:index], s.refs[index+1:]...)
	return removed, nil
}

// List returns a copy of the references in insertion order.
func (s *Store) List() []Reference {
	out := make([]Reference, len(s.refs))
	copy(out, s.refs)
	return out
}

func (s *Store) Len() int { return len(s.refs) }

func (s *Store) Reset() {
	s.refs = nil
}
