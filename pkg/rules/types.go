package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Phase is a named point in the host pipeline at which a subset of rules runs.
type Phase string

const (
	// PhaseCollection runs while entries are first being collected and
	// enriched. Rules without an explicit phase default to it.
	PhaseCollection Phase = "initial-collection"

	// PhaseFiltering runs at filter time, after collection. The host supplies
	// previously rejected entries in addition to the active set.
	PhaseFiltering Phase = "filtering"

	// PhaseModification runs after filtering, as the last chance to rewrite
	// fields before the host persists entries.
	PhaseModification Phase = "post-filter-modification"
)

// Phases lists all phases in pipeline dispatch order.
var Phases = []Phase{PhaseCollection, PhaseFiltering, PhaseModification}

// Valid reports whether the phase is one of the known phase names.
func (p Phase) Valid() bool {
	return p == PhaseCollection || p == PhaseFiltering || p == PhaseModification
}

// ReplaceSpec is a regex substitution applied to a field value. Format uses
// Go's expansion syntax: $1 or ${name} refer to captured groups.
type ReplaceSpec struct {
	Regexp string `yaml:"regexp"`
	Format string `yaml:"format"`
}

// Body holds the transformation operations declared for one destination field.
// All attributes are optional; zero values mean "not declared".
type Body struct {
	// Phase selects when the rule runs. Empty means PhaseCollection.
	Phase Phase `yaml:"phase,omitempty"`

	// From names the source field to read. Empty means the destination field.
	From string `yaml:"from,omitempty"`

	// Extract is a regex whose captured groups become the new value.
	Extract string `yaml:"extract,omitempty"`

	// Separator joins multiple captured groups. Nil means a single space;
	// an explicit empty string is a valid separator.
	Separator *string `yaml:"separator,omitempty"`

	// Remove deletes the destination field. It is terminal: extract and
	// replace are skipped for the field when set.
	Remove bool `yaml:"remove,omitempty"`

	// Replace substitutes every match of Replace.Regexp using Replace.Format.
	Replace *ReplaceSpec `yaml:"replace,omitempty"`
}

// EffectivePhase returns the declared phase or the default.
func (b *Body) EffectivePhase() Phase {
	if b.Phase == "" {
		return PhaseCollection
	}
	return b.Phase
}

// SourceField returns the field the rule reads, given its destination.
func (b *Body) SourceField(dest string) string {
	if b.From != "" {
		return b.From
	}
	return dest
}

// SeparatorOrDefault returns the group separator, defaulting to one space.
func (b *Body) SeparatorOrDefault() string {
	if b.Separator == nil {
		return " "
	}
	return *b.Separator
}

// FieldRule pairs one destination field with its rule body.
type FieldRule struct {
	Field string
	Body  Body
}

// Rule is one item of the rule list. A single item may declare several
// destination fields; declaration order is preserved because later fields may
// read what earlier fields wrote.
type Rule struct {
	Fields []FieldRule
}

// UnmarshalYAML decodes the single-level mapping form of a rule item while
// keeping the destination fields in document order (yaml.v3 map decoding
// would lose it).
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rule item must be a mapping of field name to rule body (line %d)", node.Line)
	}

	r.Fields = make([]FieldRule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		var field string
		if err := keyNode.Decode(&field); err != nil {
			return fmt.Errorf("rule field name (line %d): %w", keyNode.Line, err)
		}

		var body Body
		if err := decodeBodyStrict(valNode, &body); err != nil {
			return fmt.Errorf("rule %q: %w", field, err)
		}

		r.Fields = append(r.Fields, FieldRule{Field: field, Body: body})
	}

	return nil
}

// decodeBodyStrict decodes a rule body rejecting unknown keys.
func decodeBodyStrict(node *yaml.Node, body *Body) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rule body must be a mapping (line %d)", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		switch key {
		case "phase", "from", "extract", "separator", "remove":
		case "replace":
			if err := checkReplaceKeys(node.Content[i+1]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown rule attribute %q (line %d)", key, node.Content[i].Line)
		}
	}

	return node.Decode(body)
}

// checkReplaceKeys rejects unknown keys inside a replace block and enforces
// that both regexp and format are present. An empty format is legal: it
// deletes every match.
func checkReplaceKeys(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("replace must be a mapping with regexp and format (line %d)", node.Line)
	}

	var hasRegexp, hasFormat bool
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch key := node.Content[i].Value; key {
		case "regexp":
			hasRegexp = true
		case "format":
			hasFormat = true
		default:
			return fmt.Errorf("unknown replace attribute %q (line %d)", key, node.Content[i].Line)
		}
	}

	if !hasRegexp || !hasFormat {
		return fmt.Errorf("replace requires both regexp and format (line %d)", node.Line)
	}

	return nil
}
