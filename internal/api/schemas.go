package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/plugins"
	"github.com/vspreview/vspreview/internal/session"
	"github.com/vspreview/vspreview/internal/store"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	ScriptPath      string                `json:"script_path"`
	Loaded          bool                  `json:"loaded"`
	VideoOutputs    int                   `json:"video_outputs"`
	AudioOutputs    int                   `json:"audio_outputs"`
	View            string                `json:"view"`
	CurrentOutput   int                   `json:"current_output"`
	StorageNotFound bool                  `json:"storage_not_found"`
	LoadedAt        string                `json:"loaded_at,omitempty"`
	LastSaved       string                `json:"last_saved"`
	Plugins         *PluginStatusResponse `json:"plugins,omitempty"`
}

type PluginStatusResponse struct {
	Namespaces    []string `json:"namespaces"`
	Missing       []string `json:"missing,omitempty"`
	SpectrumReady bool     `json:"spectrum_ready"`
	LastProbeAt   string   `json:"last_probe_at,omitempty"`
}

type OutputResponse struct {
	Position   int     `json:"position"`
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Length     int64   `json:"length"`
	LengthText string  `json:"length_text"`
	DurationS  float64 `json:"duration_s,omitempty"`
	Restored   bool    `json:"restored"`
	Released   bool    `json:"released"`
}

type OutputsResponse struct {
	Kind    string           `json:"kind"`
	View    string           `json:"view,omitempty"`
	Outputs []OutputResponse `json:"outputs"`
}

type RenameRequest struct {
	Name *string `json:"name"`
}

type ViewRequest struct {
	View  string `json:"view"`
	Force bool   `json:"force,omitempty"`
}

type ViewResponse struct {
	View string `json:"view"`
}

type CurrentOutputRequest struct {
	Row   int  `json:"row"`
	Frame *int `json:"frame,omitempty"`
}

type HeuristicsResponse struct {
	Matrix     string         `json:"matrix"`
	Primaries  string         `json:"primaries"`
	Transfer   string         `json:"transfer"`
	Range      string         `json:"range"`
	ResizeArgs map[string]int `json:"resize_args"`
}

type SessionResponse struct {
	ID            string `json:"id"`
	ScriptPath    string `json:"script_path"`
	CurrentOutput int    `json:"current_output"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Updated       string `json:"updated"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// lastSaved renders a save time for people.
func lastSaved(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func StatusToResponse(st session.Status) StatusResponse {
	resp := StatusResponse{
		ScriptPath:      st.ScriptPath,
		Loaded:          st.Loaded,
		VideoOutputs:    st.VideoOutputs,
		AudioOutputs:    st.AudioOutputs,
		View:            st.View.String(),
		CurrentOutput:   st.CurrentOutput,
		StorageNotFound: st.StorageNotFound,
		LastSaved:       lastSaved(st.SavedAt),
	}
	if !st.LoadedAt.IsZero() {
		resp.LoadedAt = st.LoadedAt.Format(time.RFC3339)
	}
	return resp
}

func CapabilitiesToResponse(caps *plugins.Capabilities) *PluginStatusResponse {
	resp := &PluginStatusResponse{
		Namespaces:    caps.Names(),
		Missing:       caps.Missing(),
		SpectrumReady: caps.SpectrumReady(),
	}
	if !caps.ProbedAt.IsZero() {
		resp.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
	}
	return resp
}

func RowToResponse(r session.Row) OutputResponse {
	return OutputResponse{
		Position:   r.Position,
		Index:      r.Index,
		Name:       r.Name,
		Length:     r.Length,
		LengthText: humanize.Comma(r.Length),
		DurationS:  r.Duration.Seconds(),
		Restored:   r.Restored,
		Released:   r.Released,
	}
}

func HeuristicsToResponse(h colorstd.Heuristics) HeuristicsResponse {
	return HeuristicsResponse{
		Matrix:     h.Matrix.String(),
		Primaries:  h.Primaries.String(),
		Transfer:   h.Transfer.String(),
		Range:      h.Range.String(),
		ResizeArgs: h.ResizeArgs(),
	}
}

func SessionToResponse(s *store.Session) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		ScriptPath:    s.ScriptPath,
		CurrentOutput: s.CurrentOutput,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
		Updated:       lastSaved(s.UpdatedAt),
	}
}
