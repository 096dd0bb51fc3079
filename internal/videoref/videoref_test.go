package videoref

import (
	"errors"
	"fmt"
	"testing"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch with params", "https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/abcDEF12_-3", "abcDEF12_-3", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"shorts", "https://www.youtube.com/shorts/Zz9_-Zz9_-Z", "Zz9_-Zz9_-Z", true},
		{"too short", "https://youtu.be/abc", "", false},
		{"no id", "https://example.com/video.mp4", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(tt.url)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ExtractID(%q) = %q, %v; want %q, %v", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestStore_AddBuildsReference(t *testing.T) {
	s := NewStore()
	ref, err := s.Add("  https://youtu.be/dQw4w9WgXcQ  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.URL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("url = %q, want trimmed", ref.URL)
	}
	if ref.ThumbnailURL != "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("thumbnail = %q", ref.ThumbnailURL)
	}
}

func TestStore_AddRejectsInvalid(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/dQw4w9WgXcQ")

	_, err := s.Add("not a url")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("store changed on failed add: len = %d", s.Len())
	}
}

func TestStore_AddRejectsDuplicateID(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/dQw4w9WgXcQ")

	_, err := s.Add("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestStore_Capacity(t *testing.T) {
	s := NewStore()
	for i := 0; i < MaxReferences; i++ {
		if _, err := s.Add(fmt.Sprintf("https://youtu.be/abcdefghij%d", i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	_, err := s.Add("https://youtu.be/zzzzzzzzzzz")
	var ce *apperr.CapacityError
	if err == nil || !apperr.IsValidation(err) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if !errors.As(err, &ce) || ce.Limit != MaxReferences {
		t.Errorf("expected CapacityError with limit %d, got %v", MaxReferences, err)
	}

	before := s.List()
	if len(before) != MaxReferences {
		t.Fatalf("len = %d, want %d", len(before), MaxReferences)
	}
	for i, ref := range before {
		if want := fmt.Sprintf("abcdefghij%d", i); ref.ID != want {
			t.Errorf("ref[%d] = %q, want %q", i, ref.ID, want)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/aaaaaaaaaaa")
	s.Add("https://youtu.be/bbbbbbbbbbb")
	s.Add("https://youtu.be/ccccccccccc")

	removed, err := s.Remove(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.ID != "bbbbbbbbbbb" {
		t.Errorf("removed = %q", removed.ID)
	}

	got := s.List()
	if len(got) != 2 || got[0].ID != "aaaaaaaaaaa" || got[1].ID != "ccccccccccc" {
		t.Errorf("after remove = %+v", got)
	}
}

func TestStore_RemoveOutOfRange(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/aaaaaaaaaaa")

	for _, idx := range []int{-1, 1, 7} {
		if _, err := s.Remove(idx); !apperr.IsRange(err) {
			t.Errorf("Remove(%d) = %v, want range error", idx, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestStore_ListIsCopy(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/aaaaaaaaaaa")

	list := s.List()
	list[0].ID = "mutated"

	if s.List()[0].ID != "aaaaaaaaaaa" {
		t.Error("List must return a copy")
	}
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.Add("https://youtu.be/aaaaaaaaaaa")
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("len after reset = %d", s.Len())
	}
	if _, err := s.Add("https://youtu.be/aaaaaaaaaaa"); err != nil {
		t.Errorf("re-add after reset: %v", err)
	}
}
