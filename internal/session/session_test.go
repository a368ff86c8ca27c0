package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/db"
	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/store"
)

const previewScript = `plugins: [resize]
clips:
  main:
    width: 1920
    height: 1080
    format: YUV420P8
    frames: ${frames}
    props: {_Matrix: BT709, _Primaries: BT709, _Transfer: BT709, _ColorRange: limited}
  sd:
    width: 720
    height: 576
    format: YUV420P8
    frames: 50
outputs:
  0: {clip: main}
  2: {clip: sd}
  4: {audio: {sample_rate: 48000, channels: 2, samples: 48000}}
`

func writeScript(t *testing.T, dir, frames string) string {
	t.Helper()
	path := filepath.Join(dir, "preview.yaml")
	src := strings.ReplaceAll(previewScript, "${frames}", frames)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "sessions.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return store.NewRepository(database.Conn())
}

func newLoaded(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func names(t *testing.T, s *Session, kind string) []string {
	t.Helper()
	rows, err := s.Rows(kind)
	if err != nil {
		t.Fatalf("Rows(%s) error = %v", kind, err)
	}
	var out []string
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestLoad_Fresh(t *testing.T) {
	path := writeScript(t, t.TempDir(), "100")
	s := newLoaded(t, Options{ScriptPath: path, Repo: newTestRepo(t)})

	st := s.Status()
	if !st.StorageNotFound {
		t.Error("StorageNotFound = false, want true")
	}
	if st.VideoOutputs != 2 || st.AudioOutputs != 1 {
		t.Errorf("outputs = %d video, %d audio, want 2, 1", st.VideoOutputs, st.AudioOutputs)
	}

	rows, _ := s.Rows(KindVideo)
	want := []Row{
		{Position: 0, Index: 0, Name: "Video 0", Length: 100},
		{Position: 1, Index: 2, Name: "Video 2", Length: 50},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("video rows mismatch (-want +got):\n%s", diff)
	}

	audio, _ := s.Rows(KindAudio)
	if len(audio) != 1 || audio[0].Length != 48000 || audio[0].Duration.Seconds() != 1 {
		t.Errorf("audio rows = %+v", audio)
	}
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	path := writeScript(t, t.TempDir(), "100")

	first := newLoaded(t, Options{ScriptPath: path, Repo: repo})
	if ok, err := first.Rename(KindVideo, 1, "standard def"); err != nil || !ok {
		t.Fatalf("Rename() = %v, %v", ok, err)
	}
	if ok, _ := first.Rename(KindAudio, 0, "stereo mix"); !ok {
		t.Fatal("Rename(audio) = false")
	}
	if err := first.SetCurrentOutput(1, 30); err != nil {
		t.Fatalf("SetCurrentOutput() error = %v", err)
	}
	if err := first.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if st := first.Status(); st.SavedAt.IsZero() || st.StorageNotFound {
		t.Errorf("Status() after save = %+v", st)
	}

	second := newLoaded(t, Options{ScriptPath: path, Repo: repo})
	if diff := cmp.Diff([]string{"Video 0", "standard def"}, names(t, second, KindVideo)); diff != "" {
		t.Errorf("video names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stereo mix"}, names(t, second, KindAudio)); diff != "" {
		t.Errorf("audio names mismatch (-want +got):\n%s", diff)
	}

	st := second.Status()
	if st.StorageNotFound {
		t.Error("StorageNotFound = true after save")
	}
	if st.CurrentOutput != 1 {
		t.Errorf("CurrentOutput = %d, want 1", st.CurrentOutput)
	}

	rows, _ := second.Rows(KindVideo)
	if !rows[0].Restored || !rows[1].Restored {
		t.Errorf("rows not marked restored: %+v", rows)
	}

	doc, err := second.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	for _, want := range []string{"!VideoOutput", "last_showed_frame: 30", "type: AudioOutput"} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("Document() missing %q:\n%s", want, doc)
		}
	}
}

func TestLoad_UnusableDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "{{{"},
		{"wrong version", "version: 9\n"},
		{"wrong type", "version: 1\noutputs:\n  video:\n    type: AudioOutput\n"},
		{"bad entry", "version: 1\noutputs:\n  video:\n    type: VideoOutput\n    \"0\": !AudioOutput {name: x}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			path := writeScript(t, t.TempDir(), "10")
			abs, _ := filepath.Abs(path)
			rec := &store.Session{ScriptPath: abs, Document: []byte(tt.doc), CurrentOutput: 1}
			if err := repo.SaveSession(context.Background(), rec); err != nil {
				t.Fatalf("SaveSession() error = %v", err)
			}

			s := newLoaded(t, Options{ScriptPath: path, Repo: repo})
			if diff := cmp.Diff([]string{"Video 0", "Video 2"}, names(t, s, KindVideo)); diff != "" {
				t.Errorf("video names mismatch (-want +got):\n%s", diff)
			}
			if got := s.Status().CurrentOutput; got != 0 {
				t.Errorf("CurrentOutput = %d, want 0", got)
			}
		})
	}
}

func TestLoad_MissingListsStartFresh(t *testing.T) {
	repo := newTestRepo(t)
	path := writeScript(t, t.TempDir(), "10")
	abs, _ := filepath.Abs(path)
	doc := "version: 1\ncurrent_output_index: 7\noutputs:\n  audio:\n    type: AudioOutput\n    \"4\": !AudioOutput {name: kept}\n"
	if err := repo.SaveSession(context.Background(), &store.Session{ScriptPath: abs, Document: []byte(doc)}); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	s := newLoaded(t, Options{ScriptPath: path, Repo: repo})
	if diff := cmp.Diff([]string{"Video 0", "Video 2"}, names(t, s, KindVideo)); diff != "" {
		t.Errorf("video names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"kept"}, names(t, s, KindAudio)); diff != "" {
		t.Errorf("audio names mismatch (-want +got):\n%s", diff)
	}
	if got := s.Status().CurrentOutput; got != 1 {
		t.Errorf("CurrentOutput = %d, want clamped 1", got)
	}
}

func TestLoad_Frame(t *testing.T) {
	path := writeScript(t, t.TempDir(), "100")
	frame := 500
	s := newLoaded(t, Options{ScriptPath: path, Frame: &frame})

	doc, err := s.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if !strings.Contains(string(doc), "last_showed_frame: 99") {
		t.Errorf("Document() does not show frame clamped to 99:\n%s", doc)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "100")
	s := newLoaded(t, Options{ScriptPath: path})

	s.Rename(KindVideo, 0, "main")
	if err := s.SetCurrentOutput(0, 80); err != nil {
		t.Fatalf("SetCurrentOutput() error = %v", err)
	}

	writeScript(t, dir, "40")
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	rows, _ := s.Rows(KindVideo)
	if rows[0].Name != "main" || rows[0].Length != 40 || !rows[0].Restored {
		t.Errorf("row 0 after reload = %+v", rows[0])
	}
	doc, _ := s.Document()
	if !strings.Contains(string(doc), "last_showed_frame: 39") {
		t.Errorf("last shown frame not clamped:\n%s", doc)
	}
}

func TestReload_ScriptError(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "100")
	s := newLoaded(t, Options{ScriptPath: path})

	if err := os.WriteFile(path, []byte("outputs: {0: {clip: gone}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("Reload() error = nil, want error")
	}

	rows, _ := s.Rows(KindVideo)
	for _, r := range rows {
		if !r.Released {
			t.Errorf("row %d not released after failed reload", r.Position)
		}
	}

	writeScript(t, dir, "100")
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() after fix error = %v", err)
	}
	rows, _ = s.Rows(KindVideo)
	if rows[0].Released || rows[0].Length != 100 {
		t.Errorf("row 0 after recovery = %+v", rows[0])
	}
}

func TestSwitchView_MissingPlugin(t *testing.T) {
	s := newLoaded(t, Options{ScriptPath: writeScript(t, t.TempDir(), "10")})

	err := s.SwitchView(outputs.ViewAlternate, false)
	var capErr *outputs.MissingCapabilityError
	if !errors.As(err, &capErr) || capErr.Plugin != "fftspectrum" {
		t.Fatalf("SwitchView() error = %v, want missing fftspectrum", err)
	}
	if v := s.Status().View; v != outputs.ViewPrimary {
		t.Errorf("View = %v, want primary", v)
	}
}

func TestSwitchView_Spectrum(t *testing.T) {
	dir := t.TempDir()
	src := strings.Replace(previewScript, "plugins: [resize]", "plugins: [resize, fftspectrum]", 1)
	src = strings.ReplaceAll(src, "${frames}", "10")
	path := filepath.Join(dir, "spectrum.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newLoaded(t, Options{ScriptPath: path})

	if err := s.SwitchView(outputs.ViewAlternate, false); err != nil {
		t.Fatalf("SwitchView() error = %v", err)
	}
	s.Rename(KindVideo, 1, "sd spectrum")
	if err := s.SwitchView(outputs.ViewPrimary, false); err != nil {
		t.Fatalf("SwitchView(primary) error = %v", err)
	}
	if diff := cmp.Diff([]string{"Video 0", "sd spectrum"}, names(t, s, KindVideo)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestHeuristics(t *testing.T) {
	s := newLoaded(t, Options{ScriptPath: writeScript(t, t.TempDir(), "10")})

	got, err := s.Heuristics(1, false)
	if err != nil {
		t.Fatalf("Heuristics() error = %v", err)
	}
	if got.Matrix != colorstd.MatrixBT470BG {
		t.Errorf("Matrix = %v, want BT470BG for 576 lines", got.Matrix)
	}

	if _, err := s.Heuristics(9, true); !errors.Is(err, outputs.ErrNotFound) {
		t.Errorf("Heuristics(9) error = %v, want ErrNotFound", err)
	}
}

func TestUnknownKind(t *testing.T) {
	s := newLoaded(t, Options{ScriptPath: writeScript(t, t.TempDir(), "10")})

	if _, err := s.Rows("subtitle"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Rows() error = %v, want ErrUnknownKind", err)
	}
	if _, err := s.Rename("subtitle", 0, "x"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Rename() error = %v, want ErrUnknownKind", err)
	}
}

func TestNotLoaded(t *testing.T) {
	s, err := New(Options{ScriptPath: "missing.yaml"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Reload(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Reload() error = %v, want ErrNotLoaded", err)
	}
	if _, err := s.Rows(KindVideo); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Rows() error = %v, want ErrNotLoaded", err)
	}
	if err := s.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
	if err := s.Save(context.Background()); err == nil {
		t.Error("Save() without a store error = nil")
	}
}

type recorder struct {
	outputs.BaseObserver
	resets int
}

func (r *recorder) EndResetModel() { r.resets++ }

func TestAddObserver_SurvivesLoad(t *testing.T) {
	path := writeScript(t, t.TempDir(), "10")
	s, _ := New(Options{ScriptPath: path})
	t.Cleanup(s.Close)

	rec := &recorder{}
	s.AddObserver(rec)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if rec.resets != 2 {
		t.Errorf("resets = %d, want 2", rec.resets)
	}
}

func TestStatus_Plugins(t *testing.T) {
	s := newLoaded(t, Options{ScriptPath: writeScript(t, t.TempDir(), "10")})
	st := s.Status()
	want := Status{
		Loaded:          true,
		VideoOutputs:    2,
		AudioOutputs:    1,
		StorageNotFound: true,
		Plugins:         []string{"resize"},
	}
	opts := cmpopts.IgnoreFields(Status{}, "ScriptPath", "LoadedAt", "SavedAt")
	if diff := cmp.Diff(want, st, opts); diff != "" {
		t.Errorf("Status() mismatch (-want +got):\n%s", diff)
	}
	if !filepath.IsAbs(st.ScriptPath) {
		t.Errorf("ScriptPath = %q, want absolute", st.ScriptPath)
	}
}
