// Package ui shows the pipeline's stage and activity in the system tray.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

// Tray mirrors controller events in the system tray. It is a pipeline
// observer; updates that arrive before the tray is ready are applied once it
// is.
type Tray struct {
	logger *slog.Logger
	apiURL string

	statusItem *systray.MenuItem
	stageItem  *systray.MenuItem
	resetItem  *systray.MenuItem

	mu    sync.Mutex
	ready bool
	last  pipeline.State
	icon  []byte

	onReset func()
	onQuit  func()
}

type TrayConfig struct {
	Logger  *slog.Logger
	APIURL  string
	Initial pipeline.State
	OnReset func()
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		logger:  cfg.Logger,
		apiURL:  cfg.APIURL,
		last:    cfg.Initial,
		onReset: cfg.OnReset,
		onQuit:  cfg.OnQuit,
	}
}

// Run blocks until the tray exits.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Highlight")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.stageItem = systray.AddMenuItem("Stage: welcome", "Current pipeline stage")
	t.stageItem.Disable()

	if t.apiURL != "" {
		apiItem := systray.AddMenuItem("API: "+t.apiURL, "Local control API")
		apiItem.Disable()
	}

	systray.AddSeparator()

	t.resetItem = systray.AddMenuItem("Start Over", "Clear videos and results")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit the highlight agent")

	t.mu.Lock()
	t.ready = true
	t.applyLocked(t.last)
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.resetItem.ClickedCh:
				t.logger.Info("reset requested from tray")
				if t.onReset != nil {
					t.onReset()
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// Observe implements pipeline.Observer.
func (t *Tray) Observe(ctx context.Context, ev pipeline.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = ev.State
	if t.ready {
		t.applyLocked(ev.State)
	}
}

func (t *Tray) applyLocked(st pipeline.State) {
	t.statusItem.SetTitle("Status: " + statusText(st))
	t.stageItem.SetTitle("Stage: " + st.Stage.String())
	systray.SetTooltip(tooltip(st))

	if st.Busy {
		t.resetItem.Disable()
	} else {
		t.resetItem.Enable()
	}

	icon, err := renderIcon(st)
	if err != nil {
		t.logger.Warn("tray icon render failed", "error", err)
		return
	}
	t.icon = icon
	systray.SetIcon(icon)
}

func statusText(st pipeline.State) string {
	switch {
	case st.Busy:
		return "Working..."
	case st.LastError != "":
		return "Error"
	case st.ArtifactPath != "":
		return "Video ready"
	default:
		return "Idle"
	}
}

func tooltip(st pipeline.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Highlight Agent: %s (%s)", st.Stage, statusText(st))
	if st.LastError != "" {
		msg := st.LastError
		if len(msg) > 80 {
			msg = msg[:77] + "..."
		}
		b.WriteString("\n" + msg)
	}
	return b.String()
}

func (t *Tray) Quit() {
	systray.Quit()
}
