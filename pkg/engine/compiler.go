package engine

import (
	"fmt"
	"regexp"

	"remold-hq/remold/pkg/rules"
)

// Job is one compiled (destination field, rule body) pair ready for
// evaluation: patterns are pre-compiled so no rule can fail structurally at
// evaluation time.
type Job struct {
	Field string
	Body  rules.Body

	extract *regexp.Regexp
	replace *regexp.Regexp
}

// JobSet groups compiled jobs by phase, preserving the original rule order
// within each phase. It is built once per rule load and read-only afterwards.
type JobSet struct {
	byPhase map[rules.Phase][]Job
	total   int
}

// CompileJobs partitions the rule list into per-phase job lists. The input is
// expected to be boundary-validated; a pattern that still fails to compile is
// reported as a configuration error, never deferred to evaluation.
func CompileJobs(rs []rules.Rule) (*JobSet, error) {
	set := &JobSet{byPhase: make(map[rules.Phase][]Job, len(rules.Phases))}

	for _, rule := range rs {
		for _, fr := range rule.Fields {
			job := Job{Field: fr.Field, Body: fr.Body}

			if fr.Body.Extract != "" {
				re, err := rules.CompilePattern(fr.Body.Extract)
				if err != nil {
					return nil, fmt.Errorf("%w: field %q extract: %v", ErrBadPattern, fr.Field, err)
				}
				job.extract = re
			}

			if fr.Body.Replace != nil {
				re, err := rules.CompilePattern(fr.Body.Replace.Regexp)
				if err != nil {
					return nil, fmt.Errorf("%w: field %q replace: %v", ErrBadPattern, fr.Field, err)
				}
				job.replace = re
			}

			phase := fr.Body.EffectivePhase()
			set.byPhase[phase] = append(set.byPhase[phase], job)
			set.total++
		}
	}

	return set, nil
}

// Jobs returns the ordered job list for a phase. An empty result tells the
// caller to skip the phase entirely.
func (s *JobSet) Jobs(phase rules.Phase) []Job {
	return s.byPhase[phase]
}

// Len returns the total number of compiled jobs across all phases.
func (s *JobSet) Len() int {
	return s.total
}
