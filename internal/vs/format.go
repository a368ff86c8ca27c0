// Package vs describes the video processing library the previewer drives:
// clips, formats, frame properties, the numbered output registry and the
// core that applies plugin filters. Decoding and filtering are owned by the
// library; this package only carries what the previewer reads from it.
package vs

import (
	"fmt"
	"sort"
	"strings"
)

// ColorFamily groups formats by channel layout.
type ColorFamily int

const (
	ColorFamilyUndefined ColorFamily = iota
	ColorFamilyGray
	ColorFamilyRGB
	ColorFamilyYUV
)

var colorFamilyNames = map[ColorFamily]string{
	ColorFamilyUndefined: "UNDEFINED",
	ColorFamilyGray:      "GRAY",
	ColorFamilyRGB:       "RGB",
	ColorFamilyYUV:       "YUV",
}

func (c ColorFamily) String() string {
	if n, ok := colorFamilyNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ColorFamily(%d)", int(c))
}

// ParseColorFamily is case-insensitive.
func ParseColorFamily(s string) (ColorFamily, error) {
	for c, n := range colorFamilyNames {
		if strings.EqualFold(n, s) {
			return c, nil
		}
	}
	return ColorFamilyUndefined, fmt.Errorf("unknown color family %q", s)
}

type SampleType int

const (
	SampleInteger SampleType = iota
	SampleFloat
)

// VideoFormat describes the pixel layout of a clip. Subsampling is stored
// as log2, so 4:2:0 is (1, 1).
type VideoFormat struct {
	Name          string
	ColorFamily   ColorFamily
	SampleType    SampleType
	BitsPerSample int
	SubsamplingW  int
	SubsamplingH  int
}

// Replace returns the format with a different sample type and depth. The
// name is derived again so it matches the presets where one exists.
func (f VideoFormat) Replace(sampleType SampleType, bits int) VideoFormat {
	out := f
	out.SampleType = sampleType
	out.BitsPerSample = bits
	out.Name = formatName(out)
	return out
}

func (f VideoFormat) String() string {
	if f.Name != "" {
		return f.Name
	}
	return formatName(f)
}

func formatName(f VideoFormat) string {
	for _, p := range presets {
		if p.ColorFamily == f.ColorFamily && p.SampleType == f.SampleType &&
			p.BitsPerSample == f.BitsPerSample && p.SubsamplingW == f.SubsamplingW &&
			p.SubsamplingH == f.SubsamplingH {
			return p.Name
		}
	}
	suffix := "P"
	if f.SampleType == SampleFloat {
		suffix = "PS"
	}
	return fmt.Sprintf("%s%s%d_SS%d%d", f.ColorFamily, suffix, f.BitsPerSample,
		f.SubsamplingW, f.SubsamplingH)
}

// Preset formats, named as the library names them.
var (
	GRAY8     = VideoFormat{"GRAY8", ColorFamilyGray, SampleInteger, 8, 0, 0}
	GRAY16    = VideoFormat{"GRAY16", ColorFamilyGray, SampleInteger, 16, 0, 0}
	YUV420P8  = VideoFormat{"YUV420P8", ColorFamilyYUV, SampleInteger, 8, 1, 1}
	YUV420P10 = VideoFormat{"YUV420P10", ColorFamilyYUV, SampleInteger, 10, 1, 1}
	YUV420P16 = VideoFormat{"YUV420P16", ColorFamilyYUV, SampleInteger, 16, 1, 1}
	YUV422P8  = VideoFormat{"YUV422P8", ColorFamilyYUV, SampleInteger, 8, 1, 0}
	YUV422P10 = VideoFormat{"YUV422P10", ColorFamilyYUV, SampleInteger, 10, 1, 0}
	YUV444P8  = VideoFormat{"YUV444P8", ColorFamilyYUV, SampleInteger, 8, 0, 0}
	YUV444P16 = VideoFormat{"YUV444P16", ColorFamilyYUV, SampleInteger, 16, 0, 0}
	YUV444PS  = VideoFormat{"YUV444PS", ColorFamilyYUV, SampleFloat, 32, 0, 0}
	RGB24     = VideoFormat{"RGB24", ColorFamilyRGB, SampleInteger, 8, 0, 0}
	RGB48     = VideoFormat{"RGB48", ColorFamilyRGB, SampleInteger, 16, 0, 0}
	RGBS      = VideoFormat{"RGBS", ColorFamilyRGB, SampleFloat, 32, 0, 0}
)

var presets = []VideoFormat{
	GRAY8, GRAY16,
	YUV420P8, YUV420P10, YUV420P16,
	YUV422P8, YUV422P10,
	YUV444P8, YUV444P16, YUV444PS,
	RGB24, RGB48, RGBS,
}

// FormatByName looks up a preset format, ignoring case.
func FormatByName(name string) (VideoFormat, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return VideoFormat{}, false
}

// PresetNames lists the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}
