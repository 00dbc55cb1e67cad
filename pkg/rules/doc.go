// Package rules defines the declarative field-transformation rule model and
// its YAML boundary: loading rule files and validating their shape before the
// engine ever sees them.
//
// A rule file is a YAML list of single-level mappings from destination field
// name to a rule body:
//
//   - title:
//     extract: \[\d\d\d\d\](.*)
//   - quality:
//     from: title
//     phase: filtering
//     replace:
//     regexp: '\s+'
//     format: ' '
//   - imdb_url:
//     remove: true
//
// Validation happens once at this boundary. Rules handed to the engine are
// guaranteed to have a known phase, compilable patterns, and a complete
// replace pair, so evaluation never has to re-check structure.
package rules
