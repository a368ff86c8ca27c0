// Package session hosts one preview session: the script environment, the
// video and audio output lists built from it, and the persisted state that
// survives restarts and script reloads.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/logging"
	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/script"
	"github.com/vspreview/vspreview/internal/store"
	"github.com/vspreview/vspreview/internal/vs"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
)

var (
	ErrNotLoaded   = errors.New("session not loaded")
	ErrUnknownKind = errors.New("unknown output kind")
)

type Options struct {
	ScriptPath string
	Args       map[string]string
	// Frame, when set, is shown first on the current output.
	Frame  *int
	Repo   store.Repository
	Logger *slog.Logger
}

// Session is safe for concurrent use. Observers added with AddObserver are
// notified with the session lock held and must not call back into it.
type Session struct {
	path   string
	args   map[string]string
	frame  *int
	repo   store.Repository
	bus    *Bus
	logger *slog.Logger

	mu              sync.Mutex
	env             *script.Environment
	video           *outputs.VideoOutputs
	audio           *outputs.AudioOutputs
	observers       []outputs.ListObserver
	currentOutput   int
	storageNotFound bool
	loadedAt        time.Time
	savedAt         time.Time
}

func New(opts Options) (*Session, error) {
	path, err := filepath.Abs(opts.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("invalid script path: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		path:   path,
		args:   opts.Args,
		frame:  opts.Frame,
		repo:   opts.Repo,
		bus:    NewBus(),
		logger: logging.WithScript(logging.WithComponent(logger, "session"), path),
	}, nil
}

// liveEnv lets the collections reach whichever environment the session
// currently holds. It is only used with the session lock held.
type liveEnv struct{ s *Session }

func (l liveEnv) Outputs() map[int]vs.Output {
	if l.s.env == nil {
		return nil
	}
	return l.s.env.Outputs()
}

func (l liveEnv) HasNamespace(ns string) bool {
	return l.s.env != nil && l.s.env.HasNamespace(ns)
}

func (l liveEnv) Resize(clip vs.VideoNode, args vs.ResizeArgs) (vs.VideoNode, error) {
	return l.s.env.Resize(clip, args)
}

func (l liveEnv) FFTSpectrum(clip vs.VideoNode) (vs.VideoNode, error) {
	return l.s.env.FFTSpectrum(clip)
}

func (s *Session) ScriptPath() string { return s.path }

// Bus is the reload signal the output lists listen on.
func (s *Session) Bus() *Bus { return s.bus }

// AddObserver registers an observer of the video list.
func (s *Session) AddObserver(o outputs.ListObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
	if s.video != nil {
		s.video.AddObserver(o)
	}
}

// Load runs the script and restores the state saved for it, if any.
func (s *Session) Load(ctx context.Context) error {
	env, err := script.Load(s.path, s.args)
	if err != nil {
		return err
	}

	var rec *store.Session
	if s.repo != nil {
		rec, err = s.repo.GetSession(ctx, s.path)
		if err != nil {
			return fmt.Errorf("get saved session: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.env = env
	s.buildLists()
	s.storageNotFound = rec == nil
	s.currentOutput = 0

	if rec == nil {
		s.video.Reconcile(nil)
		s.audio.Reconcile(nil)
		s.logger.Info("no saved session, starting fresh")
	} else if err := s.restore(rec.Document); err != nil {
		s.logger.Warn("saved session unusable, starting fresh", "error", err)
		s.video.Reconcile(nil)
		s.audio.Reconcile(nil)
		s.currentOutput = 0
	}

	if s.frame != nil {
		if out, err := s.video.Get(s.currentOutput); err == nil {
			out.LastShowedFrame = clampFrame(*s.frame, out.NumFrames())
		}
	}
	s.loadedAt = time.Now()

	s.logger.Info("session loaded",
		"video_outputs", s.video.Len(),
		"audio_outputs", s.audio.Len(),
		"restored", !s.storageNotFound,
	)
	return nil
}

func (s *Session) buildLists() {
	if s.video != nil {
		s.video.Close()
		s.audio.Close()
	}
	deps := outputs.Deps{
		Registry: liveEnv{s},
		Events:   s.bus,
		Logger:   s.logger,
	}
	s.video = outputs.NewVideoOutputs(deps, liveEnv{s})
	for _, o := range s.observers {
		s.video.AddObserver(o)
	}
	s.audio = outputs.NewAudioOutputs(deps)
}

func (s *Session) restore(data []byte) error {
	doc, err := parseDocument(data)
	if err != nil {
		return err
	}

	var video map[string]*outputs.VideoOutput
	if present(&doc.Outputs.Video) {
		if video, err = s.video.DecodeState(&doc.Outputs.Video); err != nil {
			return err
		}
	}
	var audio map[string]*outputs.AudioOutput
	if present(&doc.Outputs.Audio) {
		if audio, err = s.audio.DecodeState(&doc.Outputs.Audio); err != nil {
			return err
		}
	}

	s.video.Reconcile(video)
	s.audio.Reconcile(audio)
	s.currentOutput = clampIndex(doc.CurrentOutputIndex, s.video.Len())
	return nil
}

// Reload fires the reload signal, runs the script again and reconciles the
// new outputs with the current ones. When the script fails the outputs stay
// released until a later reload succeeds.
func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		return ErrNotLoaded
	}

	// Fold edits made in the spectrum view back into the outputs first.
	s.video.SwitchToPrimaryView()
	video := keyed(s.video.Items())
	audio := keyed(s.audio.Items())

	s.bus.Publish()

	env, err := script.Load(s.path, s.args)
	if err != nil {
		s.logger.Error("script reload failed", "error", err)
		return err
	}
	s.env = env

	s.video.Reconcile(video)
	s.audio.Reconcile(audio)
	s.currentOutput = clampIndex(s.currentOutput, s.video.Len())
	s.loadedAt = time.Now()

	s.logger.Info("script reloaded", "video_outputs", s.video.Len(), "audio_outputs", s.audio.Len())
	return nil
}

func keyed[T outputs.Item](items []T) map[string]T {
	m := make(map[string]T, len(items))
	for _, o := range items {
		m[strconv.Itoa(o.Index())] = o
	}
	return m
}

// Document serialises the session state.
func (s *Session) Document() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document()
}

func (s *Session) document() ([]byte, error) {
	if s.env == nil {
		return nil, ErrNotLoaded
	}
	return yaml.Marshal(savedDocument{
		Version:            DocumentVersion,
		CurrentOutputIndex: s.currentOutput,
		Outputs:            savedLists{Video: s.video, Audio: s.audio},
	})
}

// Save writes the session state to the store.
func (s *Session) Save(ctx context.Context) error {
	if s.repo == nil {
		return errors.New("no session store configured")
	}

	s.mu.Lock()
	data, err := s.document()
	current := s.currentOutput
	s.mu.Unlock()
	if err != nil {
		return err
	}

	rec := &store.Session{ScriptPath: s.path, Document: data, CurrentOutput: current}
	if err := s.repo.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.savedAt = rec.UpdatedAt
	s.storageNotFound = false
	s.mu.Unlock()

	s.logger.Info("session saved", "session_id", rec.ID)
	return nil
}

// Close drops the output lists' reload subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video != nil {
		s.video.Close()
		s.audio.Close()
	}
}

func clampIndex(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampFrame(frame, n int) int {
	if frame < 0 {
		return 0
	}
	if n > 0 && frame >= n {
		return n - 1
	}
	return frame
}

// Heuristics guesses the colour description of the video output at row.
func (s *Session) Heuristics(row int, withProps bool) (colorstd.Heuristics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.video == nil {
		return colorstd.Heuristics{}, ErrNotLoaded
	}
	out, err := s.video.Get(row)
	if err != nil {
		return colorstd.Heuristics{}, err
	}
	if out.Source.Clip == nil {
		return colorstd.Heuristics{}, outputs.ErrReleased
	}
	return colorstd.InferClip(out.Source.Clip, withProps)
}
