package outputs

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vspreview/vspreview/internal/vs"
)

// YAML tags written on serialized output nodes.
const (
	VideoTag = "VideoOutput"
	AudioTag = "AudioOutput"
)

// Output is one numbered output of a script run.
type Output interface {
	Index() int
	Name() string
	SetName(name string)
	// Clear releases the source handle. The output stays in its list.
	Clear()
	Restored() bool
}

// Item is the constraint Collection places on its elements.
type Item interface {
	comparable
	Output
}

// VideoOutputNode is the clip pair a video output displays.
type VideoOutputNode struct {
	Clip  vs.VideoNode
	Alpha vs.VideoNode
}

type VideoOutput struct {
	Source          VideoOutputNode
	LastShowedFrame int

	index    int
	name     string
	restored bool
}

var _ Output = (*VideoOutput)(nil)

func NewVideoOutput(src VideoOutputNode, index int, restored bool) *VideoOutput {
	return &VideoOutput{
		Source:   src,
		index:    index,
		name:     fmt.Sprintf("Video %d", index),
		restored: restored,
	}
}

func (o *VideoOutput) Index() int          { return o.index }
func (o *VideoOutput) Name() string        { return o.name }
func (o *VideoOutput) SetName(name string) { o.name = name }
func (o *VideoOutput) Restored() bool      { return o.restored }
func (o *VideoOutput) Clear()              { o.Source = VideoOutputNode{} }

// NumFrames is zero once the source has been released.
func (o *VideoOutput) NumFrames() int {
	if o.Source.Clip == nil {
		return 0
	}
	return o.Source.Clip.NumFrames()
}

// rebind attaches a new source to an output restored from storage. The last
// shown frame is kept unless the new clip is shorter.
func (o *VideoOutput) rebind(src VideoOutputNode, index int) {
	o.Source = src
	o.index = index
	o.restored = true
	if o.name == "" {
		o.name = fmt.Sprintf("Video %d", index)
	}
	if n := o.NumFrames(); n > 0 && o.LastShowedFrame >= n {
		o.LastShowedFrame = n - 1
	}
	if o.LastShowedFrame < 0 {
		o.LastShowedFrame = 0
	}
}

type videoOutputDoc struct {
	Name            string `yaml:"name"`
	LastShowedFrame int    `yaml:"last_showed_frame"`
}

// MarshalYAML writes the output as a mapping tagged !VideoOutput.
func (o *VideoOutput) MarshalYAML() (any, error) {
	return taggedNode(VideoTag, videoOutputDoc{Name: o.name, LastShowedFrame: o.LastShowedFrame})
}

// UnmarshalYAML reads the persisted fields only. The output has no source
// until a reconcile binds one.
func (o *VideoOutput) UnmarshalYAML(node *yaml.Node) error {
	var doc videoOutputDoc
	if err := decodeUntagged(node, &doc); err != nil {
		return err
	}
	o.name = doc.Name
	o.LastShowedFrame = doc.LastShowedFrame
	return nil
}

type AudioOutput struct {
	Source vs.AudioNode

	index    int
	name     string
	restored bool
}

var _ Output = (*AudioOutput)(nil)

func NewAudioOutput(src vs.AudioNode, index int, restored bool) *AudioOutput {
	return &AudioOutput{
		Source:   src,
		index:    index,
		name:     fmt.Sprintf("Audio %d", index),
		restored: restored,
	}
}

func (o *AudioOutput) Index() int          { return o.index }
func (o *AudioOutput) Name() string        { return o.name }
func (o *AudioOutput) SetName(name string) { o.name = name }
func (o *AudioOutput) Restored() bool      { return o.restored }
func (o *AudioOutput) Clear()              { o.Source = nil }

func (o *AudioOutput) rebind(src vs.AudioNode, index int) {
	o.Source = src
	o.index = index
	o.restored = true
	if o.name == "" {
		o.name = fmt.Sprintf("Audio %d", index)
	}
}

type audioOutputDoc struct {
	Name string `yaml:"name"`
}

func (o *AudioOutput) MarshalYAML() (any, error) {
	return taggedNode(AudioTag, audioOutputDoc{Name: o.name})
}

func (o *AudioOutput) UnmarshalYAML(node *yaml.Node) error {
	var doc audioOutputDoc
	if err := decodeUntagged(node, &doc); err != nil {
		return err
	}
	o.name = doc.Name
	return nil
}

func taggedNode(tag string, v any) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	node.Tag = "!" + tag
	return &node, nil
}

// decodeUntagged decodes node as if it carried no explicit tag, so the
// output tags do not get in the way of plain struct decoding.
func decodeUntagged(node *yaml.Node, v any) error {
	plain := *node
	plain.Tag = ""
	return plain.Decode(v)
}
