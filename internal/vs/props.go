package vs

import "math"

// Reserved frame property keys carrying colour metadata. Values are the
// integer codes of the colorstd package.
const (
	PropMatrix         = "_Matrix"
	PropPrimaries      = "_Primaries"
	PropTransfer       = "_Transfer"
	PropColorRange     = "_ColorRange"
	PropChromaLocation = "_ChromaLocation"
	PropFieldBased     = "_FieldBased"
)

// FrameProps is the property map attached to a frame or clip. A nil map
// behaves as an empty one.
type FrameProps map[string]any

// Int returns the value of key when it is present and integral. A present
// value of another type reports false; use Has to tell it from an absent one.
func (p FrameProps) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint8:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func (p FrameProps) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p FrameProps) Clone() FrameProps {
	out := make(FrameProps, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
