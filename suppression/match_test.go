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

import "testing"

func TestEntryMatches(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		entry    Entry
		ruleID   string
		path     string
		line     int32
		expected bool
	}{
		{
			name:     "unscoped matches everywhere",
			entry:    Entry{ID: "misra-c2012-11.4"},
			ruleID:   "misra-c2012-11.4",
			path:     "src/main.c",
			line:     7,
			expected: true,
		},
		{
			name:     "different identifier",
			entry:    Entry{ID: "misra-c2012-11.4"},
			ruleID:   "misra-c2012-11.5",
			path:     "src/main.c",
			line:     7,
			expected: false,
		},
		{
			name:     "wildcard identifier",
			entry:    Entry{ID: "misra-c2012-11.*"},
			ruleID:   "misra-c2012-11.6",
			path:     "src/main.c",
			line:     7,
			expected: true,
		},
		{
			name:     "file glob matches",
			entry:    Entry{ID: "unusedFunction", File: "src/board/*.c"},
			ruleID:   "unusedFunction",
			path:     "src/board/red.c",
			line:     1,
			expected: true,
		},
		{
			name:     "file glob rejects other dirs",
			entry:    Entry{ID: "unusedFunction", File: "src/board/*.c"},
			ruleID:   "unusedFunction",
			path:     "src/main.c",
			line:     1,
			expected: false,
		},
		{
			name:     "doublestar crosses directories",
			entry:    Entry{ID: "nullPointer", File: "src/**/*.c"},
			ruleID:   "nullPointer",
			path:     "src/drivers/usb/ep0.c",
			line:     10,
			expected: true,
		},
		{
			name:     "line scope",
			entry:    Entry{ID: "nullPointer", File: "src/main.c", Line: 42},
			ruleID:   "nullPointer",
			path:     "src/main.c",
			line:     41,
			expected: false,
		},
		{
			name:     "star file means any",
			entry:    Entry{ID: "nullPointer", File: "*", Line: 42},
			ruleID:   "nullPointer",
			path:     "src/deep/nested/file.c",
			line:     42,
			expected: true,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			got := testCase.entry.Matches(testCase.ruleID, testCase.path, testCase.line)
			if got != testCase.expected {
				t.Errorf("Matches(%q, %q, %d) = %v, expected %v",
					testCase.ruleID, testCase.path, testCase.line, got, testCase.expected)
			}
		})
	}
}

func TestMatchIndex(t *testing.T) {
	list := &List{Entries: []Entry{
		{ID: "unusedFunction", File: "src/board/*.c"},
		{ID: "unusedFunction"},
		{ID: "misra-c2012-2.7"},
	}}
	if got := list.MatchIndex("unusedFunction", "src/board/red.c", 1); got != 0 {
		t.Errorf("expected the first matching entry to win, got index %d", got)
	}
	if got := list.MatchIndex("unusedFunction", "src/main.c", 1); got != 1 {
		t.Errorf("expected fallthrough to the unscoped entry, got index %d", got)
	}
	if got := list.MatchIndex("nullPointer", "src/main.c", 1); got != -1 {
		t.Errorf("expected no match, got index %d", got)
	}
}
