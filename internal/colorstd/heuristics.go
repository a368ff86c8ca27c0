package colorstd

import (
	"fmt"

	"github.com/vspreview/vspreview/internal/vs"
)

// Geometry is the frame size used to guess the standard a clip follows.
type Geometry struct {
	Width, Height int
}

// Metadata is an optional-field view of frame properties. vs.FrameProps
// satisfies it. Has reports a key whatever its value, so a value Int cannot
// read is told apart from an absent one.
type Metadata interface {
	Int(key string) (int, bool)
	Has(key string) bool
}

// Heuristics is the best guess of a clip's colour description.
type Heuristics struct {
	Matrix    Matrix     `json:"matrix" yaml:"matrix"`
	Primaries Primaries  `json:"primaries" yaml:"primaries"`
	Transfer  Transfer   `json:"transfer" yaml:"transfer"`
	Range     ColorRange `json:"range" yaml:"range"`
}

// ResizeArgs returns the guess keyed the way a resizer takes its input
// description.
func (h Heuristics) ResizeArgs() map[string]int {
	return map[string]int{
		"matrix_in":    int(h.Matrix),
		"primaries_in": int(h.Primaries),
		"transfer_in":  int(h.Transfer),
		"range_in":     int(h.Range),
	}
}

// MatrixForResolution picks the matrix a clip of the given size most
// likely uses: SD PAL, SD NTSC, HD or UHD.
func MatrixForResolution(width, height int) Matrix {
	switch {
	case width <= 1024 && height <= 576:
		if height == 576 {
			return MatrixBT470BG
		}
		return MatrixBT601
	case width <= 2048 && height <= 1536:
		return MatrixBT709
	default:
		return MatrixBT2020
	}
}

// FromResolution guesses purely from geometry and colour family. RGB clips
// are always taken as full range sRGB.
func FromResolution(g Geometry, family vs.ColorFamily) Heuristics {
	if family == vs.ColorFamilyRGB {
		return Heuristics{
			Matrix:    MatrixRGB,
			Primaries: PrimariesBT709,
			Transfer:  TransferSRGB,
			Range:     RangeFull,
		}
	}

	h := Heuristics{Range: RangeLimited}
	switch h.Matrix = MatrixForResolution(g.Width, g.Height); h.Matrix {
	case MatrixBT470BG:
		h.Primaries, h.Transfer = PrimariesBT470BG, TransferBT470BG
	case MatrixBT601:
		h.Primaries, h.Transfer = PrimariesBT601, TransferBT601
	case MatrixBT709:
		h.Primaries, h.Transfer = PrimariesBT709, TransferBT709
	default:
		h.Primaries, h.Transfer = PrimariesBT2020, TransferPQ
	}
	return h
}

// Infer starts from FromResolution and replaces each field that md carries.
// md may be nil. A carried value that is not an integer or not a valid code
// is an error.
func Infer(g Geometry, family vs.ColorFamily, md Metadata) (Heuristics, error) {
	h := FromResolution(g, family)
	if md == nil {
		return h, nil
	}

	if err := override(md, vs.PropMatrix, MatrixFromInt, &h.Matrix); err != nil {
		return Heuristics{}, err
	}
	if err := override(md, vs.PropPrimaries, PrimariesFromInt, &h.Primaries); err != nil {
		return Heuristics{}, err
	}
	if err := override(md, vs.PropTransfer, TransferFromInt, &h.Transfer); err != nil {
		return Heuristics{}, err
	}
	if err := override(md, vs.PropColorRange, ColorRangeFromInt, &h.Range); err != nil {
		return Heuristics{}, err
	}
	return h, nil
}

func override[T any](md Metadata, key string, decode func(int) (T, error), dst *T) error {
	v, ok := md.Int(key)
	if !ok {
		if md.Has(key) {
			return &PropTypeError{Key: key}
		}
		return nil
	}
	x, err := decode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = x
	return nil
}

// InferClip runs Infer on a clip. Geometry and format come from the clip,
// or from its first frame when the clip does not report constant ones.
// With withProps false the clip's properties are ignored.
func InferClip(clip vs.VideoNode, withProps bool) (Heuristics, error) {
	format, width, height := clip.Format(), clip.Width(), clip.Height()
	if format == nil || width == 0 || height == 0 {
		frame, err := clip.GetFrame(0)
		if err != nil {
			return Heuristics{}, fmt.Errorf("read first frame: %w", err)
		}
		format, width, height = frame.Format, frame.Width, frame.Height
	}

	family := vs.ColorFamilyUndefined
	if format != nil {
		family = format.ColorFamily
	}

	var md Metadata
	if withProps {
		if props := clip.Props(); len(props) > 0 {
			md = props
		}
	}
	return Infer(Geometry{Width: width, Height: height}, family, md)
}
