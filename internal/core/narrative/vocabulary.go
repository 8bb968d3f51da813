// Package narrative writes diagnostic reports from detection results
//
// Template synthesis is pure: the same detection and seed always produce the
// same text. A Composer prefers an optional generative model and falls back to
// the template whenever that model is absent or fails.
package narrative

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary holds every phrase the template synthesizer can emit
type Vocabulary struct {
	Pathologies map[string][]string `yaml:"pathologies"`
	Generic     string              `yaml:"generic"`
	Locations   []string            `yaml:"locations"`
	Advice      []string            `yaml:"advice"`
	Summaries   []string            `yaml:"summaries"`
	NoFindings  string              `yaml:"no_findings"`
}

// ParseVocabulary decodes and checks a vocabulary document
func ParseVocabulary(b []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	switch {
	case v.Generic == "", v.NoFindings == "":
		return nil, fmt.Errorf("vocabulary: generic and no_findings are required")
	case len(v.Locations) == 0, len(v.Advice) == 0, len(v.Summaries) == 0:
		return nil, fmt.Errorf("vocabulary: locations, advice and summaries must be non-empty")
	}
	norm := make(map[string][]string, len(v.Pathologies))
	for k, ts := range v.Pathologies {
		if len(ts) == 0 {
			return nil, fmt.Errorf("vocabulary: category %q has no templates", k)
		}
		norm[Category(k)] = ts
	}
	v.Pathologies = norm
	return &v, nil
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := ParseVocabulary(vocabularyYAML)
	if err != nil {
		panic(err)
	}
	return v
})

// DefaultVocabulary returns the embedded vocabulary
func DefaultVocabulary() *Vocabulary { return defaultVocabulary() }

// Categories lists the known pathology keys
func (v *Vocabulary) Categories() []string {
	out := make([]string, 0, len(v.Pathologies))
	for k := range v.Pathologies {
		out = append(out, k)
	}
	return out
}

var categorySep = strings.NewReplacer(" ", "_", "-", "_")

// Category normalizes a detector class name into a vocabulary key,
// e.g. "Periapical Lesion" -> "periapical_lesion"
func Category(class string) string {
	return categorySep.Replace(cases.Fold().String(strings.TrimSpace(class)))
}
