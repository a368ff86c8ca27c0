package outputs

import (
	"gopkg.in/yaml.v3"

	"github.com/vspreview/vspreview/internal/vs"
)

// Kind describes one kind of output to a Collection: which registry entries
// belong to it, how outputs are built and re-bound, and how they are tagged
// in persisted state.
type Kind[T Item] struct {
	Tag string
	// Match reports whether a registry entry is of this kind, returning the
	// entry normalised to the form New and Rebind expect.
	Match  func(src vs.Output) (vs.Output, bool)
	New    func(src vs.Output, index int) T
	Rebind func(out T, src vs.Output, index int)
	Decode func(node *yaml.Node) (T, error)
}

// VideoKind matches video tuples. A bare clip is promoted to a tuple with no
// alpha.
var VideoKind = Kind[*VideoOutput]{
	Tag: VideoTag,
	Match: func(src vs.Output) (vs.Output, bool) {
		switch o := src.(type) {
		case vs.VideoOutputTuple:
			return o, true
		case vs.ClipOutput:
			return vs.VideoOutputTuple{Clip: o.Clip}, true
		}
		return nil, false
	},
	New: func(src vs.Output, index int) *VideoOutput {
		return NewVideoOutput(videoNode(src), index, false)
	},
	Rebind: func(out *VideoOutput, src vs.Output, index int) {
		out.rebind(videoNode(src), index)
	},
	Decode: func(node *yaml.Node) (*VideoOutput, error) {
		out := &VideoOutput{}
		if err := out.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return out, nil
	},
}

var AudioKind = Kind[*AudioOutput]{
	Tag: AudioTag,
	Match: func(src vs.Output) (vs.Output, bool) {
		o, ok := src.(vs.AudioOutputNode)
		return o, ok
	},
	New: func(src vs.Output, index int) *AudioOutput {
		return NewAudioOutput(src.(vs.AudioOutputNode).Node, index, false)
	},
	Rebind: func(out *AudioOutput, src vs.Output, index int) {
		out.rebind(src.(vs.AudioOutputNode).Node, index)
	},
	Decode: func(node *yaml.Node) (*AudioOutput, error) {
		out := &AudioOutput{}
		if err := out.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return out, nil
	},
}

func videoNode(src vs.Output) VideoOutputNode {
	t := src.(vs.VideoOutputTuple)
	return VideoOutputNode{Clip: t.Clip, Alpha: t.Alpha}
}
