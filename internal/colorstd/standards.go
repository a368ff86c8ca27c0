// Package colorstd holds the video colour metadata code points defined by
// ITU-T H.265 Annex E (https://www.itu.int/rec/T-REC-H.265) together with a
// resolution based heuristic that guesses them for a clip.
//
// The integer value of every constant is the code carried in bitstreams and
// in the _Matrix, _Primaries, _Transfer, _ColorRange, _ChromaLocation and
// _FieldBased frame properties. They must never be renumbered.
package colorstd

import "gopkg.in/yaml.v3"

// ColorRange indicates whether sample values use the full (PC) or limited
// (TV) range.
type ColorRange int

const (
	RangeFull    ColorRange = 0
	RangeLimited ColorRange = 1
)

var rangeTable = newTable("ColorRange", map[ColorRange]string{
	RangeFull:    "FULL",
	RangeLimited: "LIMITED",
})

func ColorRangeFromInt(v int) (ColorRange, error)     { return rangeTable.fromInt(v) }
func ParseColorRange(name string) (ColorRange, error) { return rangeTable.parse(name) }
func AllColorRanges() []ColorRange                    { return rangeTable.all() }

func (c ColorRange) String() string { return rangeTable.name(c) }
func (c ColorRange) Valid() bool    { return rangeTable.valid(c) }
func (c ColorRange) Int() int       { return int(c) }

func (c ColorRange) MarshalYAML() (any, error) { return int(c), nil }

func (c *ColorRange) UnmarshalYAML(node *yaml.Node) (err error) {
	*c, err = rangeTable.decodeYAML(node)
	return err
}

// ChromaLocation is the position of the top-left chroma sample for 4:2:0
// content (Figure E.2).
type ChromaLocation int

const (
	ChromaLeft       ChromaLocation = 0
	ChromaCenter     ChromaLocation = 1
	ChromaTopLeft    ChromaLocation = 2
	ChromaTop        ChromaLocation = 3
	ChromaBottomLeft ChromaLocation = 4
	ChromaBottom     ChromaLocation = 5
)

var chromaTable = newTable("ChromaLocation", map[ChromaLocation]string{
	ChromaLeft:       "LEFT",
	ChromaCenter:     "CENTER",
	ChromaTopLeft:    "TOP_LEFT",
	ChromaTop:        "TOP",
	ChromaBottomLeft: "BOTTOM_LEFT",
	ChromaBottom:     "BOTTOM",
})

func ChromaLocationFromInt(v int) (ChromaLocation, error)     { return chromaTable.fromInt(v) }
func ParseChromaLocation(name string) (ChromaLocation, error) { return chromaTable.parse(name) }
func AllChromaLocations() []ChromaLocation                    { return chromaTable.all() }

func (c ChromaLocation) String() string { return chromaTable.name(c) }
func (c ChromaLocation) Valid() bool    { return chromaTable.valid(c) }
func (c ChromaLocation) Int() int       { return int(c) }

func (c ChromaLocation) MarshalYAML() (any, error) { return int(c), nil }

func (c *ChromaLocation) UnmarshalYAML(node *yaml.Node) (err error) {
	*c, err = chromaTable.decodeYAML(node)
	return err
}

// FieldBased is the field order of interlaced content.
type FieldBased int

const (
	FieldProgressive      FieldBased = 0
	FieldBottomFieldFirst FieldBased = 1
	FieldTopFieldFirst    FieldBased = 2
)

var fieldTable = newTable("FieldBased", map[FieldBased]string{
	FieldProgressive:      "PROGRESSIVE",
	FieldBottomFieldFirst: "BOTTOM_FIELD_FIRST",
	FieldTopFieldFirst:    "TOP_FIELD_FIRST",
})

func FieldBasedFromInt(v int) (FieldBased, error)     { return fieldTable.fromInt(v) }
func ParseFieldBased(name string) (FieldBased, error) { return fieldTable.parse(name) }
func AllFieldBased() []FieldBased                     { return fieldTable.all() }

func (f FieldBased) String() string { return fieldTable.name(f) }
func (f FieldBased) Valid() bool    { return fieldTable.valid(f) }
func (f FieldBased) Int() int       { return int(f) }

func (f FieldBased) MarshalYAML() (any, error) { return int(f), nil }

func (f *FieldBased) UnmarshalYAML(node *yaml.Node) (err error) {
	*f, err = fieldTable.decodeYAML(node)
	return err
}

// Primaries are the chromaticity coordinates of the source primaries
// (Table E.3).
type Primaries int

const (
	// Rec. ITU-R BT.709-6, IEC 61966-2-1 sRGB or sYCC.
	PrimariesBT709       Primaries = 1
	PrimariesUnspecified Primaries = 2
	// Rec. ITU-R BT.470-6 System M (historical).
	PrimariesBT470M Primaries = 4
	// Rec. ITU-R BT.470-6 System B, G; BT.601-7 625; PAL and SECAM.
	PrimariesBT470BG Primaries = 5
	// Rec. ITU-R BT.601-7 525; SMPTE ST 170. Same as ST240.
	PrimariesBT601 Primaries = 6
	PrimariesST240 Primaries = 7
	// Generic film, colour filters using Illuminant C.
	PrimariesFilm   Primaries = 8
	PrimariesBT2020 Primaries = 9
	// SMPTE ST 428-1 (CIE 1931 XYZ).
	PrimariesST428   Primaries = 10
	PrimariesP3DCI   Primaries = 11
	PrimariesP3D65   Primaries = 12
	PrimariesEBU3213 Primaries = 22
)

var primariesTable = newTable("Primaries", map[Primaries]string{
	PrimariesBT709:       "BT709",
	PrimariesUnspecified: "UNSPECIFIED",
	PrimariesBT470M:      "BT470M",
	PrimariesBT470BG:     "BT470BG",
	PrimariesBT601:       "BT601",
	PrimariesST240:       "ST240",
	PrimariesFilm:        "FILM",
	PrimariesBT2020:      "BT2020",
	PrimariesST428:       "ST428",
	PrimariesP3DCI:       "P3DCI",
	PrimariesP3D65:       "P3D65",
	PrimariesEBU3213:     "EBU3213",
})

func PrimariesFromInt(v int) (Primaries, error)     { return primariesTable.fromInt(v) }
func ParsePrimaries(name string) (Primaries, error) { return primariesTable.parse(name) }
func AllPrimaries() []Primaries                     { return primariesTable.all() }

func (p Primaries) String() string { return primariesTable.name(p) }
func (p Primaries) Valid() bool    { return primariesTable.valid(p) }
func (p Primaries) Int() int       { return int(p) }

func (p Primaries) MarshalYAML() (any, error) { return int(p), nil }

func (p *Primaries) UnmarshalYAML(node *yaml.Node) (err error) {
	*p, err = primariesTable.decodeYAML(node)
	return err
}

// Transfer is the opto-electronic transfer characteristic (Table E.4).
//
// Several codes are functionally identical (1, 6, 14 and 15) but remain
// distinct values.
type Transfer int

const (
	TransferBT709       Transfer = 1
	TransferUnspecified Transfer = 2
	// Assumed display gamma 2.2.
	TransferBT470M Transfer = 4
	// Assumed display gamma 2.8.
	TransferBT470BG Transfer = 5
	TransferBT601   Transfer = 6
	TransferST240   Transfer = 7
	TransferLinear  Transfer = 8
	// Logarithmic, 100:1 range.
	TransferLog100 Transfer = 9
	// Logarithmic, 100 * sqrt(10):1 range.
	TransferLog316   Transfer = 10
	TransferXVYCC    Transfer = 11
	TransferBT1361   Transfer = 12
	TransferSRGB     Transfer = 13
	TransferBT202010 Transfer = 14
	TransferBT202012 Transfer = 15
	// SMPTE ST 2084, BT.2100 perceptual quantization.
	TransferPQ    Transfer = 16
	TransferST428 Transfer = 17
	// ARIB STD-B67, BT.2100 hybrid log-gamma.
	TransferHLG Transfer = 18
)

var transferTable = newTable("Transfer", map[Transfer]string{
	TransferBT709:       "BT709",
	TransferUnspecified: "UNSPECIFIED",
	TransferBT470M:      "BT470M",
	TransferBT470BG:     "BT470BG",
	TransferBT601:       "BT601",
	TransferST240:       "ST240",
	TransferLinear:      "LINEAR",
	TransferLog100:      "LOG100",
	TransferLog316:      "LOG316",
	TransferXVYCC:       "XVYCC",
	TransferBT1361:      "BT1361",
	TransferSRGB:        "SRGB",
	TransferBT202010:    "BT2020_10",
	TransferBT202012:    "BT2020_12",
	TransferPQ:          "PQ",
	TransferST428:       "ST428",
	TransferHLG:         "HLG",
})

func TransferFromInt(v int) (Transfer, error)     { return transferTable.fromInt(v) }
func ParseTransfer(name string) (Transfer, error) { return transferTable.parse(name) }
func AllTransfers() []Transfer                    { return transferTable.all() }

func (t Transfer) String() string { return transferTable.name(t) }
func (t Transfer) Valid() bool    { return transferTable.valid(t) }
func (t Transfer) Int() int       { return int(t) }

func (t Transfer) MarshalYAML() (any, error) { return int(t), nil }

func (t *Transfer) UnmarshalYAML(node *yaml.Node) (err error) {
	*t, err = transferTable.decodeYAML(node)
	return err
}

// Matrix is the matrix coefficients used to derive luma and chroma from
// RGB primaries (Table E.5).
type Matrix int

const (
	// Identity matrix, GBR (or YZX for XYZ).
	MatrixRGB         Matrix = 0
	MatrixBT709       Matrix = 1
	MatrixUnspecified Matrix = 2
	MatrixBT470M      Matrix = 4
	MatrixBT470BG     Matrix = 5
	MatrixBT601       Matrix = 6
	MatrixST240       Matrix = 7
	MatrixYCOCG       Matrix = 8
	// BT.2020 non-constant luminance.
	MatrixBT2020   Matrix = 9
	MatrixBT2020CL Matrix = 10
	// SMPTE ST 2085.
	MatrixYDZDX       Matrix = 11
	MatrixChromatic   Matrix = 12
	MatrixChromaticCL Matrix = 13
	MatrixICTCP       Matrix = 14
)

var matrixTable = newTable("Matrix", map[Matrix]string{
	MatrixRGB:         "RGB",
	MatrixBT709:       "BT709",
	MatrixUnspecified: "UNSPECIFIED",
	MatrixBT470M:      "BT470M",
	MatrixBT470BG:     "BT470BG",
	MatrixBT601:       "BT601",
	MatrixST240:       "ST240",
	MatrixYCOCG:       "YCOCG",
	MatrixBT2020:      "BT2020",
	MatrixBT2020CL:    "BT2020_CL",
	MatrixYDZDX:       "YDZDX",
	MatrixChromatic:   "CHROMATIC",
	MatrixChromaticCL: "CHROMATIC_CL",
	MatrixICTCP:       "ICTCP",
})

func MatrixFromInt(v int) (Matrix, error)     { return matrixTable.fromInt(v) }
func ParseMatrix(name string) (Matrix, error) { return matrixTable.parse(name) }
func AllMatrices() []Matrix                   { return matrixTable.all() }

func (m Matrix) String() string { return matrixTable.name(m) }
func (m Matrix) Valid() bool    { return matrixTable.valid(m) }
func (m Matrix) Int() int       { return int(m) }

func (m Matrix) MarshalYAML() (any, error) { return int(m), nil }

func (m *Matrix) UnmarshalYAML(node *yaml.Node) (err error) {
	*m, err = matrixTable.decodeYAML(node)
	return err
}
