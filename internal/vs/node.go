package vs

import (
	"errors"
	"fmt"
	"time"
)

var ErrFrameOutOfRange = errors.New("frame number out of range")

// VideoFrame is the subset of a rendered frame the previewer inspects.
type VideoFrame struct {
	Number int
	Width  int
	Height int
	Format *VideoFormat
	Props  FrameProps
}

// VideoNode is a clip handle. Width, Height or Format may be zero/nil for
// clips whose geometry varies per frame; GetFrame is authoritative then.
type VideoNode interface {
	Width() int
	Height() int
	Format() *VideoFormat
	NumFrames() int
	Props() FrameProps
	GetFrame(n int) (*VideoFrame, error)
}

type AudioNode interface {
	SampleRate() int
	Channels() int
	NumSamples() int64
}

// Clip is a VideoNode with constant geometry and constant frame props.
type Clip struct {
	W, H       int
	Fmt        *VideoFormat
	Frames     int
	FrameProps FrameProps
}

var _ VideoNode = (*Clip)(nil)

func (c *Clip) Width() int           { return c.W }
func (c *Clip) Height() int          { return c.H }
func (c *Clip) Format() *VideoFormat { return c.Fmt }
func (c *Clip) NumFrames() int       { return c.Frames }
func (c *Clip) Props() FrameProps    { return c.FrameProps }

func (c *Clip) GetFrame(n int) (*VideoFrame, error) {
	if n < 0 || (c.Frames > 0 && n >= c.Frames) {
		return nil, fmt.Errorf("get frame %d of %d: %w", n, c.Frames, ErrFrameOutOfRange)
	}
	return &VideoFrame{
		Number: n,
		Width:  c.W,
		Height: c.H,
		Format: c.Fmt,
		Props:  c.FrameProps.Clone(),
	}, nil
}

// VariableClip reports no constant geometry or format; every frame carries
// its own, taken from First.
type VariableClip struct {
	First  VideoFrame
	Frames int
}

var _ VideoNode = (*VariableClip)(nil)

func (c *VariableClip) Width() int           { return 0 }
func (c *VariableClip) Height() int          { return 0 }
func (c *VariableClip) Format() *VideoFormat { return nil }
func (c *VariableClip) NumFrames() int       { return c.Frames }
func (c *VariableClip) Props() FrameProps    { return c.First.Props }

func (c *VariableClip) GetFrame(n int) (*VideoFrame, error) {
	if n < 0 || (c.Frames > 0 && n >= c.Frames) {
		return nil, fmt.Errorf("get frame %d of %d: %w", n, c.Frames, ErrFrameOutOfRange)
	}
	f := c.First
	f.Number = n
	f.Props = c.First.Props.Clone()
	return &f, nil
}

// Audio is an AudioNode with fixed parameters.
type Audio struct {
	Rate    int
	Chans   int
	Samples int64
}

var _ AudioNode = (*Audio)(nil)

func (a *Audio) SampleRate() int   { return a.Rate }
func (a *Audio) Channels() int     { return a.Chans }
func (a *Audio) NumSamples() int64 { return a.Samples }

// Duration of an audio node, zero when the sample rate is unknown.
func Duration(a AudioNode) time.Duration {
	if a == nil || a.SampleRate() <= 0 {
		return 0
	}
	return time.Duration(a.NumSamples()) * time.Second / time.Duration(a.SampleRate())
}
