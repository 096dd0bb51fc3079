// Package playback downloads rendered highlights from the media service into
// a local cache and serves them with HTTP range support.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/export"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

const maxArtifactName = 120

// videoTypes covers systems without a mime.types database.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// ErrNoArtifact is returned when there is nothing to serve yet.
var ErrNoArtifact = errors.New("no rendered video available")

type Downloader interface {
	DownloadVideo(ctx context.Context, videoPath string, w io.Writer) (int64, error)
}

// Cache keeps one local copy per remote artifact path. The media service
// may write a new render under a path it used before, so every successful
// render bumps the path's generation and older copies are downloaded again.
type Cache struct {
	dir        string
	downloader Downloader
	logger     *slog.Logger

	// mu serializes downloads; genMu only guards gens and is never held
	// across I/O.
	mu    sync.Mutex
	files map[string]cachedFile

	genMu sync.Mutex
	gens  map[string]uint64
}

type cachedFile struct {
	path string
	gen  uint64
}

func NewCache(dir string, downloader Downloader, logger *slog.Logger) *Cache {
	return &Cache{
		dir:        dir,
		downloader: downloader,
		logger:     logger,
		files:      make(map[string]cachedFile),
		gens:       make(map[string]uint64),
	}
}

// Invalidate marks the local copy of videoPath as outdated. The next Ensure
// downloads it again.
func (c *Cache) Invalidate(videoPath string) {
	c.genMu.Lock()
	c.gens[videoPath]++
	c.genMu.Unlock()
}

// Observe implements pipeline.Observer: a completed render invalidates any
// copy cached under the same path.
func (c *Cache) Observe(ctx context.Context, ev pipeline.Event) {
	if ev.Kind != pipeline.OpCreate || ev.Phase != pipeline.PhaseSucceeded || ev.Render == nil {
		return
	}
	c.Invalidate(ev.Render.VideoPath)
}

func (c *Cache) generation(videoPath string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[videoPath]
}

// LocalName is the cache file name used for a remote artifact path.
func LocalName(videoPath string) string {
	name := export.SanitizeName(mediaservice.ArtifactName(videoPath), maxArtifactName)
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

// Ensure returns the local path of the artifact, downloading it first if it
// is not cached. Concurrent callers for the same artifact wait for a single
// download.
func (c *Cache) Ensure(ctx context.Context, videoPath string) (string, error) {
	if videoPath == "" {
		return "", ErrNoArtifact
	}
	name := LocalName(videoPath)
	if name == "" {
		return "", fmt.Errorf("unusable artifact path %q", videoPath)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.generation(videoPath)
	if f, ok := c.files[videoPath]; ok {
		if _, err := os.Stat(f.path); err == nil && f.gen == gen {
			return f.path, nil
		}
		delete(c.files, videoPath)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	start := time.Now()
	n, err := c.downloader.DownloadVideo(ctx, videoPath, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("download artifact: %w", err)
	}

	dest := filepath.Join(c.dir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("store artifact: %w", err)
	}

	// a render that finished during the download leaves gen behind, so the
	// next call fetches again
	c.files[videoPath] = cachedFile{path: dest, gen: gen}
	c.logger.Info("artifact downloaded",
		"video_path", videoPath,
		"local_path", dest,
		"size", humanize.Bytes(uint64(n)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return dest, nil
}

// Server writes local files to HTTP responses, honouring Range requests.
type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	size := info.Size()

	ext := strings.ToLower(filepath.Ext(filePath))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = videoTypes[ext]
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType)

	br, partial, err := parseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrRangeNotSatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case err != nil:
		// a header we cannot read is ignored and the whole file is sent
		s.logger.Debug("ignoring malformed range", "range", r.Header.Get("Range"))
		partial = false
	}

	if !partial {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, f)
		}
		return nil
	}

	if _, err := f.Seek(br.first, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	h.Set("Content-Length", strconv.FormatInt(br.length(), 10))
	h.Set("Content-Range", br.header(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		io.CopyN(w, f, br.length())
	}
	return nil
}
