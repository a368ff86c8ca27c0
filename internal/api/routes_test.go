package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/db"
	"github.com/vspreview/vspreview/internal/plugins"
	"github.com/vspreview/vspreview/internal/session"
	"github.com/vspreview/vspreview/internal/store"
)

const testToken = "test-token-0123456789"

const testScript = `plugins: [%s]
clips:
  main:
    width: 1920
    height: 1080
    format: YUV420P8
    frames: 240
    props: {_Matrix: BT709, _ColorRange: full}
  sd:
    width: 720
    height: 480
    format: YUV420P8
    frames: 24
outputs:
  0: {clip: main}
  1: {clip: sd}
  2: {audio: {sample_rate: 48000, channels: 2, samples: 1440000}}
`

type testEnv struct {
	router     http.Handler
	session    *session.Session
	repo       store.Repository
	scriptPath string
}

func newTestEnv(t *testing.T, plugs string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	repo := store.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), store.ConfigAuthToken, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "preview.yaml")
	writeFile(t, path, strings.Replace(testScript, "%s", plugs, 1))

	sess, err := session.New(session.Options{ScriptPath: path, Repo: repo, Logger: logger})
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(sess.Close)

	cfg := ServerConfig{
		Session:    sess,
		Repository: repo,
		Doctor:     plugins.NewCachedDoctor(sess, time.Minute, logger),
		Logger:     logger,
		StartTime:  time.Now().Add(-10 * time.Second),
		DeviceID:   "test-device",
		Version:    "test",
	}
	return &testEnv{router: NewRouter(cfg), session: sess, repo: repo, scriptPath: path}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "127.0.0.1:50000"
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t, "resize")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["device_id"] != "test-device" || body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
	if up, _ := body["uptime_s"].(float64); up < 10 {
		t.Errorf("uptime_s = %v, want >= 10", body["uptime_s"])
	}
}

func TestStatus_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, "resize")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, "resize")

	rr := env.do(t, http.MethodGet, "/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.VideoOutputs != 2 || resp.AudioOutputs != 1 {
		t.Errorf("outputs = %d video, %d audio", resp.VideoOutputs, resp.AudioOutputs)
	}
	if resp.View != "primary" || resp.LastSaved != "never" || !resp.StorageNotFound {
		t.Errorf("status = %+v", resp)
	}
	if resp.Plugins == nil {
		t.Fatal("plugins missing from status")
	}
	if resp.Plugins.SpectrumReady || len(resp.Plugins.Missing) != 1 || resp.Plugins.Missing[0] != "fftspectrum" {
		t.Errorf("plugins = %+v, want fftspectrum missing", resp.Plugins)
	}
	if resp.Plugins.LastProbeAt == "" {
		t.Error("last_probe_at is empty")
	}
}

func TestListOutputs(t *testing.T) {
	env := newTestEnv(t, "resize")

	rr := env.do(t, http.MethodGet, "/outputs/audio", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp OutputsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Outputs) != 1 {
		t.Fatalf("outputs = %+v", resp.Outputs)
	}
	out := resp.Outputs[0]
	if out.Index != 2 || out.Name != "Audio 2" || out.LengthText != "1,440,000" || out.DurationS != 30 {
		t.Errorf("audio output = %+v", out)
	}

	rr = env.do(t, http.MethodGet, "/outputs/video", "")
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.View != "primary" || len(resp.Outputs) != 2 || resp.Outputs[1].Index != 1 {
		t.Errorf("video outputs = %+v", resp)
	}

	if rr := env.do(t, http.MethodGet, "/outputs/subtitles", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want 404", rr.Code)
	}
}

func TestRenameOutput(t *testing.T) {
	env := newTestEnv(t, "resize")

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"ok", "/outputs/video/1", `{"name": "NTSC"}`, http.StatusNoContent},
		{"empty name allowed", "/outputs/audio/0", `{"name": ""}`, http.StatusNoContent},
		{"no name", "/outputs/video/0", `{}`, http.StatusBadRequest},
		{"bad body", "/outputs/video/0", `nope`, http.StatusBadRequest},
		{"bad row", "/outputs/video/x", `{"name": "a"}`, http.StatusBadRequest},
		{"row out of range", "/outputs/video/5", `{"name": "a"}`, http.StatusBadRequest},
		{"unknown kind", "/outputs/subtitles/0", `{"name": "a"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPatch, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	rows, _ := env.session.Rows(session.KindVideo)
	if rows[1].Name != "NTSC" {
		t.Errorf("name after rename = %q", rows[1].Name)
	}
}

func TestSwitchView_MissingPlugin(t *testing.T) {
	env := newTestEnv(t, "resize")

	rr := env.do(t, http.MethodPost, "/outputs/video/view", `{"view": "alternate"}`)
	if rr.Code != http.StatusFailedDependency {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusFailedDependency)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "MISSING_PLUGIN" {
		t.Errorf("code = %v, want MISSING_PLUGIN", body["code"])
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, plugins.Hint("fftspectrum")) {
		t.Errorf("error %q does not carry the plugin hint", msg)
	}
}

func TestSwitchView(t *testing.T) {
	env := newTestEnv(t, "resize, fftspectrum")

	rr := env.do(t, http.MethodPost, "/outputs/video/view", `{"view": "alternate", "force": true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if body := decodeJSONBody(t, rr); body["view"] != "alternate" {
		t.Errorf("view = %v, want alternate", body["view"])
	}

	rr = env.do(t, http.MethodPost, "/outputs/video/view", `{"view": "primary"}`)
	if body := decodeJSONBody(t, rr); body["view"] != "primary" {
		t.Errorf("view = %v, want primary", body["view"])
	}

	if rr := env.do(t, http.MethodPost, "/outputs/video/view", `{"view": "sideways"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad view status = %d, want 400", rr.Code)
	}
}

func TestHeuristics(t *testing.T) {
	env := newTestEnv(t, "resize")

	rr := env.do(t, http.MethodGet, "/outputs/video/0/heuristics?props=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp HeuristicsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Matrix != colorstd.MatrixBT709.String() || resp.Range != colorstd.RangeFull.String() {
		t.Errorf("heuristics = %+v", resp)
	}
	if resp.ResizeArgs["range_in"] != int(colorstd.RangeFull) {
		t.Errorf("resize_args = %v", resp.ResizeArgs)
	}

	rr = env.do(t, http.MethodGet, "/outputs/video/1/heuristics", "")
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Matrix != colorstd.MatrixBT601.String() {
		t.Errorf("480 line matrix = %s, want %s", resp.Matrix, colorstd.MatrixBT601)
	}

	if rr := env.do(t, http.MethodGet, "/outputs/video/9/heuristics", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing row status = %d, want 404", rr.Code)
	}
}

func TestCurrentOutput(t *testing.T) {
	env := newTestEnv(t, "resize")

	if rr := env.do(t, http.MethodPost, "/outputs/video/current", `{"row": 1, "frame": 12}`); rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if got := env.session.Status().CurrentOutput; got != 1 {
		t.Errorf("CurrentOutput = %d, want 1", got)
	}
	if rr := env.do(t, http.MethodPost, "/outputs/video/current", `{"row": 7}`); rr.Code != http.StatusNotFound {
		t.Errorf("out of range status = %d, want 404", rr.Code)
	}
}

func TestSaveAndListSessions(t *testing.T) {
	env := newTestEnv(t, "resize")

	rr := env.do(t, http.MethodPost, "/session/save", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rr.Code, rr.Body.String())
	}
	var st StatusResponse
	json.Unmarshal(rr.Body.Bytes(), &st)
	if st.LastSaved == "never" || st.StorageNotFound {
		t.Errorf("status after save = %+v", st)
	}

	rr = env.do(t, http.MethodGet, "/sessions", "")
	var resp SessionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].ScriptPath != env.session.ScriptPath() {
		t.Errorf("sessions = %+v", resp.Sessions)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t, "resize")

	writeFile(t, env.scriptPath, strings.Replace(testScript, "%s", "resize, fftspectrum", 1))
	rr := env.do(t, http.MethodPost, "/session/reload", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reload status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/status", "")
	var st StatusResponse
	json.Unmarshal(rr.Body.Bytes(), &st)
	if st.Plugins == nil || !st.Plugins.SpectrumReady {
		t.Errorf("plugins after reload = %+v, want spectrum ready", st.Plugins)
	}

	writeFile(t, env.scriptPath, "outputs: {0: {clip: missing}}\n")
	rr = env.do(t, http.MethodPost, "/session/reload", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("broken reload status = %d, want 422", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "SCRIPT_ERROR" {
		t.Errorf("code = %v, want SCRIPT_ERROR", body["code"])
	}

	// The outputs stay released until a reload succeeds.
	for _, req := range []struct{ method, target, body string }{
		{http.MethodPost, "/outputs/video/view", `{"view": "alternate", "force": true}`},
		{http.MethodGet, "/outputs/video/0/heuristics", ""},
	} {
		rr := env.do(t, req.method, req.target, req.body)
		if rr.Code != http.StatusConflict {
			t.Errorf("%s %s status = %d, want 409: %s", req.method, req.target, rr.Code, rr.Body.String())
			continue
		}
		if body := decodeJSONBody(t, rr); body["code"] != "RELEASED" {
			t.Errorf("%s %s code = %v, want RELEASED", req.method, req.target, body["code"])
		}
	}
}

func TestNonLoopbackRejected(t *testing.T) {
	env := newTestEnv(t, "resize")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.5:40000"
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}
