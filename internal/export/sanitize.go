package export

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
)

// SanitizeName makes s safe for file names and EDL comments: control
// characters are dropped, anything outside letters, digits and a few
// punctuation marks becomes '_', and the result is cut to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case strings.ContainsRune(" -_.,()", r):
			return r
		default:
			return '_'
		}
	}, s)
	cleaned = strings.TrimSpace(cleaned)

	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

// ValidateOutputDir accepts an existing, clean directory path without ".."
// components.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return apperr.Validation("output_dir", "is required")
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return apperr.Validation("output_dir", "cannot contain path traversal")
		}
	}
	if filepath.Clean(dir) != dir {
		return apperr.Validation("output_dir", "must be a clean path")
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return apperr.Validation("output_dir", "does not exist")
	case err != nil:
		return apperr.Validation("output_dir", err.Error())
	case !info.IsDir():
		return apperr.Validation("output_dir", "is not a directory")
	}
	return nil
}
