package session

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DocumentVersion is written to every saved document.
const DocumentVersion = 1

// Document is the persisted state of a session. The output collections are
// kept as raw nodes so each collection validates its own part.
type Document struct {
	Version            int           `yaml:"version"`
	CurrentOutputIndex int           `yaml:"current_output_index"`
	Outputs            DocumentLists `yaml:"outputs"`
}

type DocumentLists struct {
	Video yaml.Node `yaml:"video"`
	Audio yaml.Node `yaml:"audio"`
}

type savedDocument struct {
	Version            int        `yaml:"version"`
	CurrentOutputIndex int        `yaml:"current_output_index"`
	Outputs            savedLists `yaml:"outputs"`
}

type savedLists struct {
	Video any `yaml:"video"`
	Audio any `yaml:"audio"`
}

func parseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse session document: %w", err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported session document version %d", doc.Version)
	}
	return &doc, nil
}

// present reports whether a list was present in the document.
func present(n *yaml.Node) bool {
	return n.Kind != 0 && n.ShortTag() != "!!null"
}
