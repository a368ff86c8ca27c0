package ui

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/session"
)

// changeSignal turns list-model notifications into a coalesced wake-up.
// Notifications arrive with the session lock held, so the tray re-reads
// the rows from its own goroutine instead of calling back in.
type changeSignal struct {
	outputs.BaseObserver
	ch chan struct{}
}

func newChangeSignal() *changeSignal {
	return &changeSignal{ch: make(chan struct{}, 1)}
}

func (c *changeSignal) notify() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

func (c *changeSignal) EndInsertRows()                                    { c.notify() }
func (c *changeSignal) EndRemoveRows()                                    { c.notify() }
func (c *changeSignal) EndResetModel()                                    { c.notify() }
func (c *changeSignal) DataChanged(first, last int, roles []outputs.Role) { c.notify() }

func (c *changeSignal) C() <-chan struct{} { return c.ch }

func outputTitle(r session.Row, current bool) string {
	title := fmt.Sprintf("%d: %s", r.Index, r.Name)
	if r.Released {
		title += " (released)"
	} else {
		title += fmt.Sprintf(" (%s frames)", humanize.Comma(r.Length))
	}
	if current {
		title = "▶ " + title
	}
	return title
}

func statusTitle(st session.Status) string {
	if !st.Loaded {
		return "Status: no script loaded"
	}
	title := fmt.Sprintf("Status: %d video, %d audio", st.VideoOutputs, st.AudioOutputs)
	if st.View == outputs.ViewAlternate {
		title += ", spectrum"
	}
	return title
}

func savedTitle(st session.Status) string {
	if st.SavedAt.IsZero() {
		return "Saved: never"
	}
	return "Saved: " + humanize.Time(st.SavedAt)
}
