package vs

import "sort"

// Output is one entry of the numbered output registry. It is a closed
// union of VideoOutputTuple, ClipOutput and AudioOutputNode.
type Output interface {
	isOutput()
}

// VideoOutputTuple is a video output with an optional alpha clip.
type VideoOutputTuple struct {
	Clip      VideoNode
	Alpha     VideoNode
	AltOutput int
}

// ClipOutput is a bare clip registered without the tuple wrapper, as older
// scripts do.
type ClipOutput struct {
	Clip VideoNode
}

type AudioOutputNode struct {
	Node AudioNode
}

func (VideoOutputTuple) isOutput() {}
func (ClipOutput) isOutput()       {}
func (AudioOutputNode) isOutput()  {}

// Registry exposes the outputs produced by running a script, keyed by the
// number the script assigned.
type Registry interface {
	Outputs() map[int]Output
}

// SortedIDs returns the registry ids in ascending order.
func SortedIDs(outputs map[int]Output) []int {
	ids := make([]int, 0, len(outputs))
	for id := range outputs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// StaticRegistry is a fixed snapshot.
type StaticRegistry map[int]Output

func (r StaticRegistry) Outputs() map[int]Output {
	out := make(map[int]Output, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Plugin namespaces the previewer relies on.
const (
	NamespaceResize      = "resize"
	NamespaceFFTSpectrum = "fftspectrum"
)

// ResizeArgs mirrors the keyword arguments of the resize.Point family. Nil
// pointers leave the corresponding value to the filter's own default.
// Range and RangeIn use the resizer's convention, 0 limited and 1 full, which
// is the inverse of the _ColorRange property.
type ResizeArgs struct {
	Format     *VideoFormat
	Matrix     *int
	Range      *int
	RangeIn    *int
	DitherType string
}

// Core applies plugin filters. Filters are lazy: they return new clip
// handles and do no frame work until frames are requested.
type Core interface {
	HasNamespace(namespace string) bool
	Resize(clip VideoNode, args ResizeArgs) (VideoNode, error)
	FFTSpectrum(clip VideoNode) (VideoNode, error)
}

func Ptr[T any](v T) *T {
	return &v
}
