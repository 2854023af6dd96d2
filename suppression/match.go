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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
)

// Matches reports whether the entry suppresses a violation of ruleID at
// path:line. An entry without scope matches the identifier everywhere.
func (e *Entry) Matches(ruleID, path string, line int32) bool {
	if strings.Contains(e.ID, "*") {
		matched, err := doublestar.Match(e.ID, ruleID)
		if err != nil {
			glog.Errorf("malformed identifier pattern %s", e.ID)
			return false
		}
		if !matched {
			return false
		}
	} else if e.ID != ruleID {
		return false
	}
	if e.File != "" && e.File != "*" {
		matched, err := doublestar.Match(e.File, path)
		if err != nil {
			glog.Errorf("malformed file pattern %s", e.File)
			return false
		}
		if !matched {
			return false
		}
	}
	if e.Line != 0 && e.Line != line {
		return false
	}
	return true
}

// MatchIndex returns the index of the first entry suppressing a violation of
// ruleID at path:line, or -1 when the list does not suppress it.
func (l *List) MatchIndex(ruleID, path string, line int32) int {
	for i := range l.Entries {
		if l.Entries[i].Matches(ruleID, path, line) {
			return i
		}
	}
	return -1
}
