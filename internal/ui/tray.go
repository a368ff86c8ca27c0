package ui

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/getlantern/systray"

	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/plugins"
	"github.com/vspreview/vspreview/internal/session"
)

// Session is what the tray drives.
type Session interface {
	Status() session.Status
	Rows(kind string) ([]session.Row, error)
	SwitchView(view outputs.View, force bool) error
	SetCurrentOutput(row, frame int) error
	Reload(ctx context.Context) error
	Save(ctx context.Context) error
	AddObserver(o outputs.ListObserver)
}

type Tray struct {
	session Session
	doctor  *plugins.CachedDoctor
	logger  *slog.Logger
	changes *changeSignal

	statusItem   *systray.MenuItem
	savedItem    *systray.MenuItem
	outputsItem  *systray.MenuItem
	spectrumItem *systray.MenuItem
	outputItems  []*systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Session Session
	Doctor  *plugins.CachedDoctor
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	t := &Tray{
		session: cfg.Session,
		doctor:  cfg.Doctor,
		logger:  cfg.Logger,
		changes: newChangeSignal(),
		onQuit:  cfg.OnQuit,
	}
	cfg.Session.AddObserver(t.changes)
	return t
}

// Run blocks until the tray quits. It must be called from the main
// goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	st := t.session.Status()

	systray.SetIcon(iconBytes)
	systray.SetTitle("vspreview")
	systray.SetTooltip("vspreview: " + filepath.Base(st.ScriptPath))

	t.statusItem = systray.AddMenuItem(statusTitle(st), "Loaded script")
	t.statusItem.Disable()
	t.savedItem = systray.AddMenuItem(savedTitle(st), "Last session save")
	t.savedItem.Disable()

	systray.AddSeparator()

	t.outputsItem = systray.AddMenuItem("Outputs", "Video outputs")
	t.spectrumItem = systray.AddMenuItemCheckbox("Spectrum view", "Show the FFT spectrum of every output", false)

	systray.AddSeparator()

	reloadItem := systray.AddMenuItem("Reload script", "Run the script again")
	saveItem := systray.AddMenuItem("Save session", "Store names and positions")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit vspreview")

	t.refresh()

	go func() {
		for {
			select {
			case <-t.changes.C():
				t.refresh()
			case <-t.spectrumItem.ClickedCh:
				t.toggleSpectrum()
			case <-reloadItem.ClickedCh:
				t.reload()
			case <-saveItem.ClickedCh:
				t.save()
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

// refresh rebuilds the menu from the session. systray cannot remove items,
// so surplus output items are hidden and reused later.
func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.session.Status()
	t.statusItem.SetTitle(statusTitle(st))
	t.savedItem.SetTitle(savedTitle(st))
	if st.View == outputs.ViewAlternate {
		t.spectrumItem.Check()
	} else {
		t.spectrumItem.Uncheck()
	}

	rows, err := t.session.Rows(session.KindVideo)
	if err != nil && !errors.Is(err, session.ErrNotLoaded) {
		t.logger.Warn("failed to list outputs", "error", err)
	}
	for len(t.outputItems) < len(rows) {
		t.addOutputItem(len(t.outputItems))
	}
	for i, item := range t.outputItems {
		if i >= len(rows) {
			item.Hide()
			continue
		}
		item.SetTitle(outputTitle(rows[i], i == st.CurrentOutput))
		item.Show()
	}
}

func (t *Tray) addOutputItem(pos int) {
	item := t.outputsItem.AddSubMenuItem("", "Show this output")
	t.outputItems = append(t.outputItems, item)
	go func() {
		for range item.ClickedCh {
			if err := t.session.SetCurrentOutput(pos, -1); err != nil {
				t.logger.Warn("failed to select output", "position", pos, "error", err)
			}
			t.changes.notify()
		}
	}()
}

func (t *Tray) toggleSpectrum() {
	view := outputs.ViewAlternate
	if t.session.Status().View == outputs.ViewAlternate {
		view = outputs.ViewPrimary
	}

	err := t.session.SwitchView(view, false)
	var capErr *outputs.MissingCapabilityError
	switch {
	case errors.As(err, &capErr):
		t.logger.Warn("spectrum view unavailable", "plugin", capErr.Plugin, "hint", capErr.Hint)
		t.spectrumItem.SetTooltip(capErr.Error())
	case err != nil:
		t.logger.Error("failed to switch view", "error", err)
	}
	t.changes.notify()
}

func (t *Tray) reload() {
	if err := t.session.Reload(context.Background()); err != nil {
		t.logger.Error("script reload failed", "error", err)
	}
	if t.doctor != nil {
		t.doctor.Invalidate()
	}
	t.changes.notify()
}

func (t *Tray) save() {
	if err := t.session.Save(context.Background()); err != nil {
		t.logger.Error("failed to save session", "error", err)
	}
	t.changes.notify()
}

func (t *Tray) Quit() {
	systray.Quit()
}
