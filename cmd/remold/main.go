// Remold is a declarative field transformation engine for string-keyed
// entries.
//
// Rules map destination fields to regex-driven operations (extract, replace,
// remove) that run in one of three fixed phases. Remold reads entries as a
// JSON array of string maps, applies the configured rules, and writes the
// transformed entries back out.
//
// Usage:
//
//	# Transform entries from stdin with rules.yaml
//	remold run --rules rules.yaml < entries.json
//
//	# Transform a file and keep re-running when the rules change
//	remold run --rules rules/ --input entries.json --output out.json --watch
//
//	# Validate rule files
//	remold lint --file rules.yaml
//
//	# Show version information
//	remold version
package main

func main() {
	Execute()
}
