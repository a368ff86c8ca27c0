package session

import (
	"context"
	"fmt"
	"time"

	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/vs"
)

// Row is what a client sees of one output.
type Row struct {
	Position int    `json:"position"`
	Index    int    `json:"index"`
	Name     string `json:"name"`
	// Frames for video, samples for audio. Zero once the source is released.
	Length   int64         `json:"length"`
	Duration time.Duration `json:"duration,omitempty"`
	Restored bool          `json:"restored"`
	Released bool          `json:"released"`
}

// Status summarises the session.
type Status struct {
	ScriptPath      string
	Loaded          bool
	VideoOutputs    int
	AudioOutputs    int
	View            outputs.View
	CurrentOutput   int
	StorageNotFound bool
	Plugins         []string
	LoadedAt        time.Time
	SavedAt         time.Time
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ScriptPath:      s.path,
		Loaded:          s.env != nil,
		CurrentOutput:   s.currentOutput,
		StorageNotFound: s.storageNotFound,
		LoadedAt:        s.loadedAt,
		SavedAt:         s.savedAt,
	}
	if s.env != nil {
		st.VideoOutputs = s.video.Len()
		st.AudioOutputs = s.audio.Len()
		st.View = s.video.ActiveView()
		st.Plugins = s.env.Plugins()
	}
	return st
}

// Rows lists the active outputs of kind.
func (s *Session) Rows(kind string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return nil, ErrNotLoaded
	}
	var rows []Row
	switch kind {
	case KindVideo:
		for pos, o := range s.video.All() {
			rows = append(rows, Row{
				Position: pos,
				Index:    o.Index(),
				Name:     o.Name(),
				Length:   int64(o.NumFrames()),
				Restored: o.Restored(),
				Released: o.Source.Clip == nil,
			})
		}
	case KindAudio:
		for pos, o := range s.audio.All() {
			r := Row{
				Position: pos,
				Index:    o.Index(),
				Name:     o.Name(),
				Restored: o.Restored(),
				Released: o.Source == nil,
			}
			if o.Source != nil {
				r.Length = o.Source.NumSamples()
				r.Duration = vs.Duration(o.Source)
			}
			rows = append(rows, r)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return rows, nil
}

// Rename sets the name of the output at row. It reports false when there is
// no such row.
func (s *Session) Rename(kind string, row int, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return false, ErrNotLoaded
	}
	switch kind {
	case KindVideo:
		return s.video.Rename(row, name), nil
	case KindAudio:
		return s.audio.Rename(row, name), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// SwitchView makes the outputs or their spectrum view the active video list.
func (s *Session) SwitchView(view outputs.View, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return ErrNotLoaded
	}
	if view == outputs.ViewPrimary {
		s.video.SwitchToPrimaryView()
		return nil
	}
	if err := s.video.SwitchToAlternateView(force); err != nil {
		return err
	}
	s.logger.Debug("switched to spectrum view", "forced", force)
	return nil
}

// SetCurrentOutput selects the video output at row and, when frame is not
// negative, the frame shown on it.
func (s *Session) SetCurrentOutput(row, frame int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return ErrNotLoaded
	}
	out, err := s.video.Get(row)
	if err != nil {
		return err
	}
	s.currentOutput = row
	if frame >= 0 {
		out.LastShowedFrame = clampFrame(frame, out.NumFrames())
	}
	return nil
}

// Namespaces lists the plugin namespaces of the loaded script's core.
func (s *Session) Namespaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.env == nil {
		return nil, ErrNotLoaded
	}
	return s.env.Plugins(), nil
}
