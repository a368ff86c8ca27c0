package outputs

import (
	"errors"
	"fmt"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/vs"
)

// FFTSpectrumURL is where users get the plugin the spectrum view needs.
const FFTSpectrumURL = "https://github.com/Beatrice-Raws/FFTSpectrum"

// Spectrum builds the frequency-domain view of clip. The clip is first
// converted to 8-bit full range: RGB goes to YUV444P8 with a matrix guessed
// from its size, other families keep their layout.
func Spectrum(core vs.Core, clip vs.VideoNode) (vs.VideoNode, error) {
	if clip == nil {
		return nil, ErrReleased
	}

	frame, err := clip.GetFrame(0)
	if err != nil {
		return nil, fmt.Errorf("read first frame: %w", err)
	}
	format, width, height := clip.Format(), clip.Width(), clip.Height()
	if format == nil || width == 0 || height == 0 {
		format, width, height = frame.Format, frame.Width, frame.Height
	}
	if format == nil {
		return nil, errors.New("clip has no format")
	}

	args := vs.ResizeArgs{Range: vs.Ptr(1), DitherType: "error_diffusion"}
	if format.ColorFamily == vs.ColorFamilyRGB {
		args.Format = &vs.YUV444P8
		args.Matrix = vs.Ptr(colorstd.MatrixForResolution(width, height).Int())
		args.RangeIn = vs.Ptr(1)
	} else {
		eight := format.Replace(vs.SampleInteger, 8)
		args.Format = &eight
		rangeIn := 0
		if r, ok := frame.Props.Int(vs.PropColorRange); ok {
			rangeIn = 1 - r
		}
		args.RangeIn = &rangeIn
	}

	resized, err := core.Resize(clip, args)
	if err != nil {
		return nil, fmt.Errorf("resize to %s: %w", args.Format, err)
	}
	return core.FFTSpectrum(resized)
}
