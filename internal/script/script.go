// Package script loads preview scripts. A script is a YAML document that
// declares the plugin namespaces its core provides, the clips it builds and
// the numbered outputs it registers:
//
//	plugins: [resize, fftspectrum]
//	clips:
//	  src:
//	    width: 1920
//	    height: 1080
//	    format: YUV420P10
//	    frames: ${frames}
//	    props: {_Matrix: BT709, _ColorRange: limited}
//	outputs:
//	  0: {clip: src}
//	  1: {audio: {sample_rate: 48000, channels: 2, samples: 480000}}
//
// ${name} placeholders are replaced with the values passed on the command
// line before the document is parsed.
package script

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/vs"
)

var (
	ErrMissingArg  = errors.New("script argument not provided")
	ErrUnknownClip = errors.New("unknown clip")
)

// Script is the parsed document.
type Script struct {
	Plugins []string           `yaml:"plugins"`
	Clips   map[string]ClipDef `yaml:"clips"`
	Outputs map[int]OutputDef  `yaml:"outputs"`
}

type ClipDef struct {
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Format string         `yaml:"format"`
	Frames int            `yaml:"frames"`
	Props  map[string]any `yaml:"props,omitempty"`
	// Variable clips report no constant geometry or format.
	Variable bool `yaml:"variable,omitempty"`
}

type OutputDef struct {
	Clip  string    `yaml:"clip,omitempty"`
	Alpha string    `yaml:"alpha,omitempty"`
	Audio *AudioDef `yaml:"audio,omitempty"`
	// Bare registers the clip without the video tuple wrapper.
	Bare bool `yaml:"bare,omitempty"`
}

type AudioDef struct {
	SampleRate int   `yaml:"sample_rate"`
	Channels   int   `yaml:"channels"`
	Samples    int64 `yaml:"samples"`
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces ${name} placeholders with args. Every placeholder must
// have a value.
func Expand(src string, args map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(src, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := args[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingArg, strings.Join(missing, ", "))
	}
	return out, nil
}

// ParseArgs turns key=value pairs into a map. Later pairs win.
func ParseArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid argument %q: want key=value", p)
		}
		args[strings.TrimSpace(key)] = value
	}
	return args, nil
}

// Parse expands and decodes a script document.
func Parse(data []byte, args map[string]string) (*Script, error) {
	src, err := Expand(string(data), args)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		return nil, fmt.Errorf("unmarshal script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks clip formats, colour properties and output references.
// Colour properties given by name are rewritten to their integer codes.
func (s *Script) Validate() error {
	for name, c := range s.Clips {
		if _, ok := vs.FormatByName(c.Format); !ok {
			return fmt.Errorf("clip %q: unknown format %q (known: %s)", name, c.Format,
				strings.Join(vs.PresetNames(), ", "))
		}
		if c.Width < 0 || c.Height < 0 || c.Frames < 0 {
			return fmt.Errorf("clip %q: negative geometry or length", name)
		}
		for key, v := range c.Props {
			decode, ok := colorProps[key]
			if !ok {
				continue
			}
			code, err := decode(v)
			if err != nil {
				return fmt.Errorf("clip %q: prop %s: %w", name, key, err)
			}
			c.Props[key] = code
		}
	}

	for id, o := range s.Outputs {
		if id < 0 {
			return fmt.Errorf("output %d: ids must not be negative", id)
		}
		switch {
		case o.Audio != nil && o.Clip != "":
			return fmt.Errorf("output %d: both clip and audio set", id)
		case o.Audio != nil:
			if o.Audio.SampleRate <= 0 || o.Audio.Channels <= 0 {
				return fmt.Errorf("output %d: audio needs a sample rate and channels", id)
			}
		case o.Clip == "":
			return fmt.Errorf("output %d: neither clip nor audio set", id)
		default:
			if _, ok := s.Clips[o.Clip]; !ok {
				return fmt.Errorf("output %d: %w %q", id, ErrUnknownClip, o.Clip)
			}
			if o.Alpha != "" {
				if _, ok := s.Clips[o.Alpha]; !ok {
					return fmt.Errorf("output %d: alpha: %w %q", id, ErrUnknownClip, o.Alpha)
				}
			}
		}
	}
	return nil
}

var colorProps = map[string]func(any) (int, error){
	vs.PropMatrix:         codeOf(colorstd.MatrixFromInt, colorstd.ParseMatrix),
	vs.PropPrimaries:      codeOf(colorstd.PrimariesFromInt, colorstd.ParsePrimaries),
	vs.PropTransfer:       codeOf(colorstd.TransferFromInt, colorstd.ParseTransfer),
	vs.PropColorRange:     codeOf(colorstd.ColorRangeFromInt, colorstd.ParseColorRange),
	vs.PropChromaLocation: codeOf(colorstd.ChromaLocationFromInt, colorstd.ParseChromaLocation),
	vs.PropFieldBased:     codeOf(colorstd.FieldBasedFromInt, colorstd.ParseFieldBased),
}

type code interface {
	~int
	Int() int
}

// codeOf accepts either the integer code or the name of a colour standard.
func codeOf[T code](fromInt func(int) (T, error), parse func(string) (T, error)) func(any) (int, error) {
	return func(v any) (int, error) {
		var (
			c   T
			err error
		)
		switch x := v.(type) {
		case int:
			c, err = fromInt(x)
		case string:
			c, err = parse(x)
		default:
			return 0, fmt.Errorf("want an integer code or a name, got %T", v)
		}
		if err != nil {
			return 0, err
		}
		return c.Int(), nil
	}
}

// Load reads, parses and builds the script at path.
func Load(path string, args map[string]string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Build(path, s), nil
}
