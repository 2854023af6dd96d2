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

package checklist

import (
	"strings"
	"testing"

	"naive.systems/suppress/suppression"
)

func findingWith(findings []Finding, substr string) bool {
	for _, finding := range findings {
		if strings.Contains(finding.String(), substr) {
			return true
		}
	}
	return false
}

func TestCheckCleanList(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-11.4", Justification: "MMIO"},
		{ID: "misra-c2012-dir-4.6", Justification: "basic types are fine here"},
		{ID: "unusedFunction", Justification: "shared board code"},
	}}
	knownIDs := map[string]bool{"unusedFunction": true}
	findings := Check(list, nil, knownIDs, DefaultPolicy())
	if len(findings) != 0 {
		t.Errorf("expected no findings, got: %v", findings)
	}
}

func TestCheckUnknownMisraRule(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-99.9"},
		{ID: "misra-c2012-dir-9.1"},
	}}
	findings := Check(list, nil, nil, DefaultPolicy())
	if !findingWith(findings, "no rule 99.9") {
		t.Errorf("expected a finding for the unknown rule, got: %v", findings)
	}
	if !findingWith(findings, "no directive 9.1") {
		t.Errorf("expected a finding for the unknown directive, got: %v", findings)
	}
}

func TestCheckUnknownCppcheckID(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "unusedFunction"},
		{ID: "notAServiceCppcheckKnows"},
	}}
	knownIDs := map[string]bool{"unusedFunction": true}
	findings := Check(list, nil, knownIDs, DefaultPolicy())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got: %v", findings)
	}
	if findings[0].Entry != "notAServiceCppcheckKnows" {
		t.Errorf("unexpected finding: %v", findings[0])
	}
	// without an inventory, internal names cannot be judged
	findings = Check(list, nil, nil, DefaultPolicy())
	if len(findings) != 0 {
		t.Errorf("expected no findings without an inventory, got: %v", findings)
	}
}

func TestCheckMandatory(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-9.1", Justification: "we know better"},
	}}
	findings := Check(list, nil, nil, DefaultPolicy())
	if !findingWith(findings, "Mandatory") {
		t.Errorf("expected a Mandatory warning, got: %v", findings)
	}
	policy := DefaultPolicy()
	policy.WarnMandatory = false
	if findings := Check(list, nil, nil, policy); len(findings) != 0 {
		t.Errorf("expected no findings with WarnMandatory off, got: %v", findings)
	}
}

func TestCheckDuplicatesAndJustification(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-2.7", Justification: "unused parameters in callbacks"},
		{ID: "misra-c2012-2.7"},
	}}
	policy := DefaultPolicy()
	policy.RequireJustification = true
	findings := Check(list, nil, nil, policy)
	if !findingWith(findings, "duplicate entry") {
		t.Errorf("expected a duplicate finding, got: %v", findings)
	}
	if !findingWith(findings, "no justification") {
		t.Errorf("expected a justification finding, got: %v", findings)
	}
	// scoped variants of the same identifier are distinct entries
	scoped := &suppression.List{Entries: []suppression.Entry{
		{ID: "unusedFunction", File: "src/a.c"},
		{ID: "unusedFunction", File: "src/b.c"},
	}}
	if findings := Check(scoped, nil, nil, DefaultPolicy()); findingWith(findings, "duplicate") {
		t.Errorf("scoped entries must not count as duplicates: %v", findings)
	}
}

func TestCheckWildcardSkipsValidation(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-11.*"},
	}}
	findings := Check(list, nil, nil, DefaultPolicy())
	if len(findings) != 0 {
		t.Errorf("wildcard identifiers cannot be validated, got: %v", findings)
	}
}

func TestCheckSurfacesParseWarnings(t *testing.T) {
	warnings := []suppression.Warning{{LineNumber: 3, Message: `"!!!" is not a valid rule identifier`}}
	findings := Check(&suppression.List{}, warnings, nil, DefaultPolicy())
	if len(findings) != 1 || !strings.Contains(findings[0].String(), "line 3") {
		t.Errorf("expected the parse warning to surface, got: %v", findings)
	}
}

func TestStale(t *testing.T) {
	list := &suppression.List{Entries: []suppression.Entry{
		{ID: "misra-c2012-11.4"},
		{ID: "unusedFunction"},
		{ID: "nullPointer"},
	}}
	findings := Stale(list, map[int]int{0: 3, 2: 1})
	if len(findings) != 1 {
		t.Fatalf("expected 1 stale finding, got: %v", findings)
	}
	if findings[0].Entry != "unusedFunction" {
		t.Errorf("unexpected stale entry: %v", findings[0])
	}
}
