package outputs

import (
	"fmt"

	"github.com/vspreview/vspreview/internal/vs"
)

// VideoOutputs is the video list model. Besides the outputs themselves it
// keeps a cached spectrum view of every output, which can be made the active
// list in their place.
type VideoOutputs struct {
	*Collection[*VideoOutput]
	core vs.Core
}

func NewVideoOutputs(deps Deps, core vs.Core) *VideoOutputs {
	v := &VideoOutputs{
		Collection: NewCollection(VideoKind, deps),
		core:       core,
	}
	v.syncPrimary = v.syncFromAlternate
	return v
}

// CopyDisplayState copies what the user sees of an output, its name and
// last shown frame.
func (v *VideoOutputs) CopyDisplayState(to, from *VideoOutput) {
	to.name = from.name
	to.LastShowedFrame = from.LastShowedFrame
}

// BuildAlternate wraps clip in a new output standing in for old.
func (v *VideoOutputs) BuildAlternate(old *VideoOutput, clip vs.VideoNode) *VideoOutput {
	out := NewVideoOutput(VideoOutputNode{Clip: clip, Alpha: old.Source.Alpha}, old.index, false)
	v.CopyDisplayState(out, old)
	return out
}

func (v *VideoOutputs) syncFromAlternate() {
	for i := range min(len(v.primary), len(v.alternate)) {
		v.CopyDisplayState(v.primary[i], v.alternate[i])
	}
}

// SwitchToPrimaryView makes the outputs themselves the active list again,
// carrying over what changed while the spectrum view was shown.
func (v *VideoOutputs) SwitchToPrimaryView() {
	v.showPrimary()
}

// SwitchToAlternateView makes the spectrum view the active list. The view is
// built on first use or when force is set; otherwise the cached one is
// brought up to date with the primary list. Without the fftspectrum and
// resize plugins it fails with a *MissingCapabilityError and the primary
// list stays active.
func (v *VideoOutputs) SwitchToAlternateView(force bool) error {
	if err := v.checkCapabilities(); err != nil {
		return err
	}

	c := v.Collection
	if len(c.alternate) > 0 && !force {
		c.reset(func() {
			if c.view == ViewPrimary {
				for i := range min(len(c.primary), len(c.alternate)) {
					v.CopyDisplayState(c.alternate[i], c.primary[i])
				}
			}
			c.view = ViewAlternate
		})
		return nil
	}

	if c.view == ViewAlternate {
		v.syncFromAlternate()
	}
	built := make([]*VideoOutput, 0, len(c.primary))
	for _, old := range c.primary {
		clip, err := Spectrum(v.core, old.Source.Clip)
		if err != nil {
			return fmt.Errorf("spectrum of output %d: %w", old.index, err)
		}
		built = append(built, v.BuildAlternate(old, clip))
	}

	c.reset(func() {
		c.alternate = built
		c.view = ViewAlternate
	})
	c.logger.Debug("built spectrum view", "outputs", len(built), "forced", force)
	return nil
}

func (v *VideoOutputs) checkCapabilities() error {
	if v.core == nil || !v.core.HasNamespace(vs.NamespaceFFTSpectrum) {
		return &MissingCapabilityError{Plugin: vs.NamespaceFFTSpectrum, Hint: FFTSpectrumURL}
	}
	if !v.core.HasNamespace(vs.NamespaceResize) {
		return &MissingCapabilityError{Plugin: vs.NamespaceResize}
	}
	return nil
}
