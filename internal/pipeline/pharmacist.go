package pipeline

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/mediscribe/mediscribe_backend/internal/schema"
)

var defaultDrugAliases = map[string]string{
	"Tabzole":     "Tabzole (Albendazole)",
	"Amoxil":      "Amoxicillin",
	"Amoxycillin": "Amoxicillin",
	"Paracetamol": "Paracetamol",
	"Augmentin":   "Amoxicillin-Clavulanate",
	"Brufen":      "Ibuprofen",
	"Disprin":     "Aspirin",
	"Flagyl":      "Metronidazole",
}

var defaultAbbreviations = map[string]string{
	"OD":   "once daily",
	"BD":   "twice daily",
	"BID":  "twice daily",
	"TDS":  "three times daily",
	"TID":  "three times daily",
	"QID":  "four times daily",
	"HS":   "at bedtime",
	"SOS":  "as needed",
	"PRN":  "as needed",
	"AC":   "before meals",
	"PC":   "after meals",
	"STAT": "immediately",
	"QH":   "every hour",
	"Q4H":  "every 4 hours",
	"Q6H":  "every 6 hours",
	"Q8H":  "every 8 hours",
}

var reDrugNameNoise = regexp.MustCompile(`[^A-Za-z0-9\s-]`)

type drugAlias struct {
	prefix   string // lower-cased
	standard string
}

// Pharmacist is the local Corrector: it standardizes brand names through an
// alias table and expands Latin scheduling abbreviations.
type Pharmacist struct {
	aliases       []drugAlias
	abbreviations map[string]string
}

// NewPharmacist merges extra entries over the built-in tables. Extra keys
// win over built-in keys that match case-insensitively.
func NewPharmacist(extraAliases, extraAbbreviations map[string]string) *Pharmacist {
	merged := make(map[string]string, len(defaultDrugAliases)+len(extraAliases))
	for k, v := range defaultDrugAliases {
		merged[strings.ToLower(k)] = v
	}
	for k, v := range extraAliases {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		merged[k] = strings.TrimSpace(v)
	}

	aliases := make([]drugAlias, 0, len(merged))
	for k, v := range merged {
		aliases = append(aliases, drugAlias{prefix: k, standard: v})
	}
	// Longest prefix first so "amoxycillin" is not shadowed by a shorter alias.
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i].prefix) != len(aliases[j].prefix) {
			return len(aliases[i].prefix) > len(aliases[j].prefix)
		}
		return aliases[i].prefix < aliases[j].prefix
	})

	abbrev := make(map[string]string, len(defaultAbbreviations)+len(extraAbbreviations))
	for k, v := range defaultAbbreviations {
		abbrev[k] = v
	}
	for k, v := range extraAbbreviations {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		abbrev[k] = v
	}

	return &Pharmacist{aliases: aliases, abbreviations: abbrev}
}

// Correct standardizes drafts. Entries whose name is empty after cleanup are
// dropped; nothing is ever added.
func (p *Pharmacist) Correct(ctx context.Context, drafts []DraftMedication) ([]schema.Medication, error) {
	out := make([]schema.Medication, 0, len(drafts))
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := p.NormalizeName(d.Name)
		if name == "" {
			continue
		}
		out = append(out, schema.Medication{
			Name:       name,
			Dose:       strings.TrimSpace(d.Dose),
			Schedule:   p.ExpandSchedule(d.Schedule),
			Confidence: NormalizeConfidence(d.Confidence),
		})
	}
	return out, nil
}

// NormalizeName strips OCR noise and maps known brand prefixes to their
// standard name.
func (p *Pharmacist) NormalizeName(name string) string {
	clean := strings.TrimSpace(reDrugNameNoise.ReplaceAllString(strings.TrimSpace(name), ""))
	if clean == "" {
		return ""
	}
	lower := strings.ToLower(clean)
	for _, a := range p.aliases {
		if strings.HasPrefix(lower, a.prefix) {
			return a.standard
		}
	}
	return clean
}

// ExpandSchedule replaces abbreviation tokens such as "OD" or "bd." with
// plain English and leaves every other token as written.
func (p *Pharmacist) ExpandSchedule(schedule string) string {
	parts := strings.Fields(schedule)
	for i, part := range parts {
		token := strings.Trim(strings.ToUpper(part), ".,")
		if expanded, ok := p.abbreviations[token]; ok {
			parts[i] = expanded
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeConfidence maps free-form labels such as "High" or "Med" onto
// high, medium or low. Unknown or missing labels become low.
func NormalizeConfidence(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high", "h":
		return schema.ConfidenceHigh
	case "med", "medium", "m", "moderate":
		return schema.ConfidenceMedium
	default:
		return schema.ConfidenceLow
	}
}
