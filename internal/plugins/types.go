// Package plugins reports which of the core plugins the previewer relies on
// the loaded script's core provides.
package plugins

import (
	"context"
	"sort"
	"time"

	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/vs"
)

// Required lists the namespaces the spectrum view needs.
var Required = []string{vs.NamespaceResize, vs.NamespaceFFTSpectrum}

var hints = map[string]string{
	vs.NamespaceFFTSpectrum: outputs.FFTSpectrumURL,
}

// Hint returns where a missing plugin can be obtained, if known.
func Hint(namespace string) string { return hints[namespace] }

// Prober lists the namespaces of the current core.
type Prober interface {
	Namespaces(ctx context.Context) ([]string, error)
}

// Capabilities is the result of one probe.
type Capabilities struct {
	Namespaces map[string]bool `json:"namespaces"`
	ProbedAt   time.Time       `json:"probed_at"`
}

func (c *Capabilities) Has(namespace string) bool { return c.Namespaces[namespace] }

// Missing returns the required namespaces the core lacks, in Required order.
func (c *Capabilities) Missing() []string {
	var missing []string
	for _, ns := range Required {
		if !c.Namespaces[ns] {
			missing = append(missing, ns)
		}
	}
	return missing
}

// SpectrumReady reports whether the spectrum view can be built.
func (c *Capabilities) SpectrumReady() bool { return len(c.Missing()) == 0 }

// Names lists every namespace found, sorted.
func (c *Capabilities) Names() []string {
	names := make([]string, 0, len(c.Namespaces))
	for ns, ok := range c.Namespaces {
		if ok {
			names = append(names, ns)
		}
	}
	sort.Strings(names)
	return names
}
