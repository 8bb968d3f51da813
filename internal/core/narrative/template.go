package narrative

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"radiodx/internal/core/finding"
)

const (
	reportTitle = "# Dental Radiographic Diagnostic Report"
	disclaimer  = "Note: This is an AI-assisted report and should be verified by a dental professional."
)

// Template is the deterministic report synthesizer
type Template struct {
	vocab *Vocabulary
}

// NewTemplate builds a synthesizer over v (nil means the embedded vocabulary)
func NewTemplate(v *Vocabulary) *Template {
	if v == nil {
		v = DefaultVocabulary()
	}
	return &Template{vocab: v}
}

// NewRand returns the generator Template.Render expects for a seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Render writes the Markdown report for det, drawing choices from rng
// Detections outside the confidence range are rejected, not re-normalized
func (t *Template) Render(det finding.Detection, rng *rand.Rand) (string, error) {
	if err := det.Validate(); err != nil {
		return "", err
	}
	if det.Empty() {
		return t.vocab.NoFindings, nil
	}

	findings := make([]string, 0, len(det.Predictions))
	for _, p := range det.Predictions {
		findings = append(findings, t.finding(p, rng))
	}

	summary := strings.ReplaceAll(pick(t.vocab.Summaries, rng), "{findings_count}", strconv.Itoa(len(findings)))
	advice := pick(t.vocab.Advice, rng)

	var b strings.Builder
	b.WriteString(reportTitle)
	b.WriteString("\n\n## Summary\n")
	b.WriteString(summary)
	b.WriteString("\n\n## Findings\n")
	for i, f := range findings {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("- ")
		b.WriteString(f)
	}
	b.WriteString("\n\n## Recommendations\n\n\n")
	b.WriteString(advice)
	b.WriteString("\n\n---\n")
	b.WriteString(disclaimer)
	return b.String(), nil
}

func (t *Template) finding(p finding.Prediction, rng *rand.Rand) string {
	tmpl := t.vocab.Generic
	if ts, ok := t.vocab.Pathologies[Category(p.Class)]; ok {
		tmpl = pick(ts, rng)
	}
	// location is always drawn so the sequence does not depend on category
	loc := pick(t.vocab.Locations, rng)
	return strings.NewReplacer(
		"{confidence}", strconv.FormatFloat(p.Percent(), 'f', 1, 64),
		"{location}", loc,
		"{class_name}", p.Class,
	).Replace(tmpl)
}

func pick(xs []string, rng *rand.Rand) string { return xs[rng.IntN(len(xs))] }
