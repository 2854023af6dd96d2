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

package suppression

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) (*List, []Warning) {
	t.Helper()
	list, warnings, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return list, warnings
}

func ids(list *List) []string {
	out := []string{}
	for _, entry := range list.Entries {
		out = append(out, entry.ID)
	}
	return out
}

func TestParse(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "identifiers and comments",
			input:    "misra-c2012-11.4\n# comment\nmisra-c2012-11.5\n",
			expected: []string{"misra-c2012-11.4", "misra-c2012-11.5"},
		},
		{
			name:     "comments and blanks only",
			input:    "\n# only comments\n\n",
			expected: []string{},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "duplicates are preserved",
			input:    "unusedFunction\nmisra-c2012-2.7\nunusedFunction\n",
			expected: []string{"unusedFunction", "misra-c2012-2.7", "unusedFunction"},
		},
		{
			name:     "leading whitespace",
			input:    "  misra-c2012-19.2\n\t# indented comment\n",
			expected: []string{"misra-c2012-19.2"},
		},
		{
			name:     "no trailing newline",
			input:    "unusedFunction",
			expected: []string{"unusedFunction"},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			list, warnings := mustParse(t, testCase.input)
			if len(warnings) != 0 {
				t.Errorf("unexpected warnings: %v", warnings)
			}
			if got := ids(list); !reflect.DeepEqual(got, testCase.expected) {
				t.Errorf("unexpected identifiers. got: %v. expected: %v.", got, testCase.expected)
			}
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	input := "# keep\nmisra-c2012-11.4\nunusedFunction # stale helper\n\nmisra-c2012-11.4:src/**/*.c:42\n"
	first, _ := mustParse(t, input)
	second, _ := mustParse(t, input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing the same input twice differs. first: %v. second: %v.", first, second)
	}
}

func TestParseJustifications(t *testing.T) {
	input := "# approved by QA 2024-03-12\n# pointer cast needed for MMIO\nmisra-c2012-11.4\nunusedFunction # kept for debugging\n"
	list, warnings := mustParse(t, input)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Entries))
	}
	expected := "approved by QA 2024-03-12\npointer cast needed for MMIO"
	if list.Entries[0].Justification != expected {
		t.Errorf("unexpected justification. got: %q. expected: %q.", list.Entries[0].Justification, expected)
	}
	if list.Entries[1].Justification != "kept for debugging" {
		t.Errorf("unexpected inline justification: %q", list.Entries[1].Justification)
	}
}

func TestParseHeaderCommentNotAttached(t *testing.T) {
	input := "# this file lists suppressed checks\n\nmisra-c2012-2.7\n"
	list, _ := mustParse(t, input)
	if len(list.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list.Entries))
	}
	if list.Entries[0].Justification != "" {
		t.Errorf("header comment leaked into justification: %q", list.Entries[0].Justification)
	}
}

func TestParseScopedEntries(t *testing.T) {
	input := "unusedFunction:src/board/*.c\nmisra-c2012-11.4:src/main.c:128\nnullPointer:*:199\n"
	list, warnings := mustParse(t, input)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	expected := []Entry{
		{ID: "unusedFunction", File: "src/board/*.c"},
		{ID: "misra-c2012-11.4", File: "src/main.c", Line: 128},
		{ID: "nullPointer", File: "*", Line: 199},
	}
	if !reflect.DeepEqual(list.Entries, expected) {
		t.Errorf("unexpected entries. got: %v. expected: %v.", list.Entries, expected)
	}
}

func TestParseWarnings(t *testing.T) {
	for _, testCase := range [...]struct {
		name       string
		input      string
		lineNumber int
	}{
		{"punctuation only", "misra-c2012-1.1\n!!!\n", 2},
		{"internal whitespace", "unused Function\n", 1},
		{"bad line number", "nullPointer:main.c:abc\n", 1},
		{"indented comment is still a comment", "   # indented\nmisra-c2012-2.7\n", 0},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			_, warnings := mustParse(t, testCase.input)
			if testCase.lineNumber == 0 {
				if len(warnings) != 0 {
					t.Errorf("unexpected warnings: %v", warnings)
				}
				return
			}
			if len(warnings) != 1 {
				t.Fatalf("expected 1 warning, got %v", warnings)
			}
			if warnings[0].LineNumber != testCase.lineNumber {
				t.Errorf("unexpected warning line. got: %d. expected: %d.", warnings[0].LineNumber, testCase.lineNumber)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	input := "# MMIO registers\nmisra-c2012-11.4\nmisra-c2012-11.5\nunusedFunction # two boards share this file\nunusedFunction\nmisra-c2012-17.7:src/drivers/**:12\n"
	list, _, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reparsed, warnings, err := Parse(strings.NewReader(string(list.Format())))
	if err != nil {
		t.Fatalf("Parse(Format): %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Format produced lines that warn on reparse: %v", warnings)
	}
	if !reflect.DeepEqual(list, reparsed) {
		t.Errorf("round trip changed the list.\nbefore: %v\nafter: %v", list, reparsed)
	}
}

func TestParseFileMissing(t *testing.T) {
	list, warnings, err := ParseFile(filepath.Join(t.TempDir(), "no_such_file"))
	if err != nil {
		t.Fatalf("missing file must not be an error, got: %v", err)
	}
	if len(warnings) != 0 || len(list.Entries) != 0 {
		t.Errorf("missing file must degrade to an empty list, got %d entries", len(list.Entries))
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.txt")
	list := &List{Entries: []Entry{
		{ID: "misra-c2012-11.4", Justification: "register access"},
		{ID: "unusedFunction"},
	}}
	if err := list.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	reparsed, warnings, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if !reflect.DeepEqual(list, reparsed) {
		t.Errorf("file round trip changed the list.\nbefore: %v\nafter: %v", list, reparsed)
	}
}

func TestDedup(t *testing.T) {
	list, _ := mustParse(t, "# first\nunusedFunction\nmisra-c2012-2.7\n# second, ignored\nunusedFunction\n")
	deduped := list.Dedup()
	if got := ids(deduped); !reflect.DeepEqual(got, []string{"unusedFunction", "misra-c2012-2.7"}) {
		t.Errorf("unexpected identifiers after dedup: %v", got)
	}
	if deduped.Entries[0].Justification != "first" {
		t.Errorf("dedup must keep the first occurrence, got justification %q", deduped.Entries[0].Justification)
	}
	if got := ids(list); len(got) != 3 {
		t.Errorf("dedup must not modify the receiver, got %v", got)
	}
}
