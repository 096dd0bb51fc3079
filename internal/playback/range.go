package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedRange      = errors.New("malformed range header")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// byteRange is an inclusive span of bytes within a resource.
type byteRange struct {
	first, last int64
}

func (r byteRange) length() int64 { return r.last - r.first + 1 }

func (r byteRange) header(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.first, r.last, size)
}

// parseRange interprets a single-range Range header against a resource of
// size bytes. ok is false when no range was requested. Only the first range
// of a multi-range request is honoured.
func parseRange(header string, size int64) (r byteRange, ok bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return byteRange{}, false, nil
	}
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return byteRange{}, false, ErrMalformedRange
	}
	spec, _, _ = strings.Cut(spec, ",")
	startStr, endStr, found := strings.Cut(strings.TrimSpace(spec), "-")
	if !found {
		return byteRange{}, false, ErrMalformedRange
	}

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false, ErrMalformedRange
		}
		if size == 0 {
			return byteRange{}, false, ErrRangeNotSatisfiable
		}
		return byteRange{first: max(size-n, 0), last: size - 1}, true, nil
	}

	first, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || first < 0 {
		return byteRange{}, false, ErrMalformedRange
	}
	last := size - 1
	if endStr != "" {
		if last, err = strconv.ParseInt(endStr, 10, 64); err != nil {
			return byteRange{}, false, ErrMalformedRange
		}
		if last < first {
			return byteRange{}, false, ErrRangeNotSatisfiable
		}
	}
	if first >= size {
		return byteRange{}, false, ErrRangeNotSatisfiable
	}
	return byteRange{first: first, last: min(last, size-1)}, true, nil
}
