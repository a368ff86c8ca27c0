package script

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vspreview/vspreview/internal/vs"
)

var ErrNoNamespace = errors.New("namespace not available")

// Environment is the result of running a script: its output registry and
// the core its filters run on. Filters only rewrite clip metadata.
type Environment struct {
	path    string
	plugins map[string]bool
	clips   map[string]vs.VideoNode
	outputs map[int]vs.Output
}

var (
	_ vs.Registry = (*Environment)(nil)
	_ vs.Core     = (*Environment)(nil)
)

// Build instantiates a validated script.
func Build(path string, s *Script) *Environment {
	env := &Environment{
		path:    path,
		plugins: make(map[string]bool, len(s.Plugins)),
		clips:   make(map[string]vs.VideoNode, len(s.Clips)),
		outputs: make(map[int]vs.Output, len(s.Outputs)),
	}
	for _, p := range s.Plugins {
		env.plugins[p] = true
	}
	for name, def := range s.Clips {
		env.clips[name] = newClip(def)
	}

	for id, o := range s.Outputs {
		switch {
		case o.Audio != nil:
			env.outputs[id] = vs.AudioOutputNode{Node: &vs.Audio{
				Rate:    o.Audio.SampleRate,
				Chans:   o.Audio.Channels,
				Samples: o.Audio.Samples,
			}}
		case o.Bare:
			env.outputs[id] = vs.ClipOutput{Clip: env.clips[o.Clip]}
		default:
			t := vs.VideoOutputTuple{Clip: env.clips[o.Clip]}
			if o.Alpha != "" {
				t.Alpha = env.clips[o.Alpha]
			}
			env.outputs[id] = t
		}
	}
	return env
}

func newClip(def ClipDef) vs.VideoNode {
	f, _ := vs.FormatByName(def.Format)
	props := vs.FrameProps(def.Props).Clone()
	if def.Variable {
		return &vs.VariableClip{
			First:  vs.VideoFrame{Width: def.Width, Height: def.Height, Format: &f, Props: props},
			Frames: def.Frames,
		}
	}
	return &vs.Clip{W: def.Width, H: def.Height, Fmt: &f, Frames: def.Frames, FrameProps: props}
}

func (e *Environment) Path() string { return e.path }

func (e *Environment) Outputs() map[int]vs.Output {
	out := make(map[int]vs.Output, len(e.outputs))
	for k, v := range e.outputs {
		out[k] = v
	}
	return out
}

// Plugins lists the available namespaces in sorted order.
func (e *Environment) Plugins() []string {
	names := make([]string, 0, len(e.plugins))
	for p := range e.plugins {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) Clip(name string) (vs.VideoNode, bool) {
	c, ok := e.clips[name]
	return c, ok
}

func (e *Environment) HasNamespace(namespace string) bool { return e.plugins[namespace] }

// Resize returns a clip in the target format. The range arguments are
// reflected in the _ColorRange property of the result.
func (e *Environment) Resize(clip vs.VideoNode, args vs.ResizeArgs) (vs.VideoNode, error) {
	if !e.plugins[vs.NamespaceResize] {
		return nil, fmt.Errorf("%w: %s", ErrNoNamespace, vs.NamespaceResize)
	}
	frame, err := firstFrame(clip)
	if err != nil {
		return nil, err
	}

	out := &vs.Clip{
		W:          frame.Width,
		H:          frame.Height,
		Fmt:        frame.Format,
		Frames:     clip.NumFrames(),
		FrameProps: frame.Props.Clone(),
	}
	if args.Format != nil {
		f := *args.Format
		out.Fmt = &f
	}
	if out.Fmt == nil {
		return nil, errors.New("resize: clip has no format and none was given")
	}
	if args.Range != nil {
		out.FrameProps[vs.PropColorRange] = 1 - *args.Range
	}
	if args.Matrix != nil {
		out.FrameProps[vs.PropMatrix] = *args.Matrix
	}
	return out, nil
}

// FFTSpectrum returns a full range GRAY8 clip of the same size. Like the
// plugin it only accepts 8-bit integer input.
func (e *Environment) FFTSpectrum(clip vs.VideoNode) (vs.VideoNode, error) {
	if !e.plugins[vs.NamespaceFFTSpectrum] {
		return nil, fmt.Errorf("%w: %s", ErrNoNamespace, vs.NamespaceFFTSpectrum)
	}
	frame, err := firstFrame(clip)
	if err != nil {
		return nil, err
	}
	if f := frame.Format; f == nil || f.SampleType != vs.SampleInteger || f.BitsPerSample != 8 {
		return nil, fmt.Errorf("fftspectrum: only 8-bit integer clips are supported, got %v", frame.Format)
	}

	gray := vs.GRAY8
	return &vs.Clip{
		W:          frame.Width,
		H:          frame.Height,
		Fmt:        &gray,
		Frames:     clip.NumFrames(),
		FrameProps: vs.FrameProps{vs.PropColorRange: 0},
	}, nil
}

func firstFrame(clip vs.VideoNode) (*vs.VideoFrame, error) {
	if clip == nil {
		return nil, errors.New("nil clip")
	}
	frame, err := clip.GetFrame(0)
	if err != nil {
		return nil, fmt.Errorf("read first frame: %w", err)
	}
	return frame, nil
}
