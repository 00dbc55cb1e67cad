package rules

import (
	"regexp"
)

// Validate checks a rule list against the schema: known phases, compilable
// patterns, and complete replace pairs. Unknown attributes are already
// rejected during YAML decoding. It returns the first failure found, so a
// validated list never produces a structural error at evaluation time.
func Validate(rs []Rule) error {
	for _, rule := range rs {
		for _, fr := range rule.Fields {
			if err := validateBody(fr.Field, &fr.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateBody(field string, body *Body) error {
	if field == "" {
		return &ValidationError{Field: field, Message: "destination field name is empty"}
	}

	if body.Phase != "" && !body.Phase.Valid() {
		return &ValidationError{Field: field, Message: "unknown phase " + string(body.Phase)}
	}

	if body.Extract != "" {
		if _, err := CompilePattern(body.Extract); err != nil {
			return &ValidationError{Field: field, Message: "invalid extract pattern", Cause: err}
		}
	}

	if body.Replace != nil {
		if _, err := CompilePattern(body.Replace.Regexp); err != nil {
			return &ValidationError{Field: field, Message: "invalid replace pattern", Cause: err}
		}
	}

	return nil
}

// CompilePattern compiles a rule pattern with the evaluation flags: matching
// is case-insensitive, and Go regexp is Unicode-aware by construction.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}
