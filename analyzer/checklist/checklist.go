/*
NaiveSystems Suppress - A suppression list manager for C static analysis
Copyright (C) 2024  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package checklist lints a suppression list itself: identifiers nobody
// defines, duplicated entries, suppressed Mandatory guidelines, missing
// justifications, and entries that no longer fire. Everything here is a
// warning; a suppression list never breaks the analysis run.
package checklist

import (
	"fmt"
	"strings"

	"naive.systems/suppress/rulesets"
	"naive.systems/suppress/suppression"
)

type Policy struct {
	// Dedup reports duplicated entries and lets the rewrite command drop
	// them. Parsing always preserves multiplicity regardless.
	Dedup bool `yaml:"dedup"`
	// RequireJustification reports entries without a comment explaining them.
	RequireJustification bool `yaml:"require_justification"`
	// WarnMandatory reports suppressions of MISRA Mandatory guidelines,
	// which the standard does not permit to deviate from.
	WarnMandatory bool `yaml:"warn_mandatory"`
}

func DefaultPolicy() Policy {
	return Policy{
		Dedup:                true,
		RequireJustification: false,
		WarnMandatory:        true,
	}
}

type Finding struct {
	// Entry is the offending entry as written, or empty for findings about
	// raw lines that never became entries.
	Entry   string
	Message string
}

func (f Finding) String() string {
	if f.Entry == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Entry, f.Message)
}

// Check validates list against what is known about rule identifiers.
// warnings are the parse-time warnings to surface alongside. knownIDs is the
// cppcheck error-id inventory; pass nil to skip that check (e.g. when no
// cppcheck binary is around).
func Check(list *suppression.List, warnings []suppression.Warning, knownIDs map[string]bool, policy Policy) []Finding {
	findings := []Finding{}
	for _, warning := range warnings {
		findings = append(findings, Finding{Message: warning.String()})
	}

	seen := make(map[string]bool)
	for i := range list.Entries {
		entry := &list.Entries[i]
		findings = append(findings, checkEntry(entry, knownIDs, policy)...)
		key := entry.Key()
		if seen[key] {
			if policy.Dedup {
				findings = append(findings, Finding{Entry: key, Message: "duplicate entry, redundant"})
			}
		} else {
			seen[key] = true
		}
	}
	return findings
}

func checkEntry(entry *suppression.Entry, knownIDs map[string]bool, policy Policy) []Finding {
	findings := []Finding{}
	key := entry.Key()
	wildcard := strings.Contains(entry.ID, "*")
	switch rulesets.Classify(entry.ID) {
	case rulesets.KindMisraRule:
		if !wildcard && !rulesets.KnownMisraRule(rulesets.Number(entry.ID)) {
			findings = append(findings, Finding{
				Entry:   key,
				Message: fmt.Sprintf("MISRA C:2012 has no rule %s", rulesets.Number(entry.ID)),
			})
		}
	case rulesets.KindMisraDir:
		if !wildcard && !rulesets.KnownMisraDir(rulesets.Number(entry.ID)) {
			findings = append(findings, Finding{
				Entry:   key,
				Message: fmt.Sprintf("MISRA C:2012 has no directive %s", rulesets.Number(entry.ID)),
			})
		}
	case rulesets.KindCppcheckID:
		if knownIDs != nil && !knownIDs[entry.ID] {
			findings = append(findings, Finding{
				Entry:   key,
				Message: "not a cppcheck check name, the entry has no effect",
			})
		}
	case rulesets.KindInvalid:
		if !wildcard {
			findings = append(findings, Finding{
				Entry:   key,
				Message: "not a recognizable rule identifier",
			})
		}
	}
	if policy.WarnMandatory && rulesets.RuleCategory(entry.ID) == rulesets.CategoryMandatory {
		findings = append(findings, Finding{
			Entry:   key,
			Message: fmt.Sprintf("%s is Mandatory, deviation is not permitted", rulesets.GetRuleFullName(entry.ID)),
		})
	}
	if policy.RequireJustification && entry.Justification == "" {
		findings = append(findings, Finding{Entry: key, Message: "no justification comment"})
	}
	return findings
}

// Stale reports the entries that suppressed nothing in the run whose
// matchCounts (entry index to hit count) is given.
func Stale(list *suppression.List, matchCounts map[int]int) []Finding {
	findings := []Finding{}
	for i := range list.Entries {
		if matchCounts[i] == 0 {
			findings = append(findings, Finding{
				Entry:   list.Entries[i].Key(),
				Message: "matched no result in this run, consider removing it",
			})
		}
	}
	return findings
}
