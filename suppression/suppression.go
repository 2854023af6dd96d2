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

// Package suppression reads and writes cppcheck suppression lists.
//
// The format is line oriented. Empty lines and lines whose first
// non-whitespace byte is '#' are comments; comment text is attached to the
// next entry as its justification. Every other line is one entry:
//
//	<id>[:<fileglob>[:<line>]] [# inline justification]
//
// The plain single-token form is what cppcheck's --suppressions-list flag
// reads; the optional scope parts follow cppcheck's native syntax.
package suppression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"naive.systems/suppress/atomic"
)

type Entry struct {
	// ID is the rule identifier, e.g. "misra-c2012-11.4" or "unusedFunction".
	// It may contain '*' wildcards, which cppcheck also accepts.
	ID string
	// File restricts the entry to paths matching this glob. Empty means any.
	File string
	// Line restricts the entry to one line. Zero means any.
	Line int32
	// Justification is the free text explaining why the rule is suppressed.
	Justification string
}

// Key formats the entry the way it appears in the file, without comments.
func (e *Entry) Key() string {
	if e.Line != 0 {
		return fmt.Sprintf("%s:%s:%d", e.ID, e.File, e.Line)
	}
	if e.File != "" {
		return e.ID + ":" + e.File
	}
	return e.ID
}

// List is an ordered suppression list. Order carries no semantics but is
// preserved so that a rewrite stays diffable against the source. Duplicate
// entries are preserved as well; see Dedup.
type List struct {
	Entries []Entry
}

// Warning describes a line that was skipped at parse time. Malformed lines
// are never fatal: the worst case is that a suppression does not apply.
type Warning struct {
	LineNumber int
	Message    string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.LineNumber, w.Message)
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z0-9_.\-*]+$`)

func parseEntryLine(trimmed string, pending []string) (Entry, string) {
	var inline string
	if idx := strings.Index(trimmed, "#"); idx >= 0 {
		inline = strings.TrimSpace(trimmed[idx+1:])
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	if trimmed == "" {
		return Entry{}, "missing identifier before '#'"
	}
	if strings.ContainsAny(trimmed, " \t") {
		return Entry{}, fmt.Sprintf("unexpected whitespace in %q", trimmed)
	}
	entry := Entry{}
	parts := strings.SplitN(trimmed, ":", 3)
	entry.ID = parts[0]
	if !identifierRe.MatchString(entry.ID) {
		return Entry{}, fmt.Sprintf("%q is not a valid rule identifier", entry.ID)
	}
	if len(parts) > 1 {
		entry.File = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" && parts[2] != "*" {
		line, err := strconv.Atoi(parts[2])
		if err != nil || line <= 0 {
			return Entry{}, fmt.Sprintf("%q is not a valid line number", parts[2])
		}
		entry.Line = int32(line)
	}
	justification := strings.Join(pending, "\n")
	if inline != "" {
		if justification != "" {
			justification += "\n" + inline
		} else {
			justification = inline
		}
	}
	entry.Justification = justification
	return entry, ""
}

// Parse reads a suppression list. It never fails on content: lines it cannot
// understand are reported as warnings and skipped. The only error condition
// is a failing reader.
func Parse(r io.Reader) (*List, []Warning, error) {
	list := &List{}
	warnings := []Warning{}
	var pending []string
	lineNumber := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNumber++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			// A blank line ends a comment block, so a file header does not
			// become the justification of the first entry.
			pending = nil
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			pending = append(pending, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			continue
		}
		entry, problem := parseEntryLine(trimmed, pending)
		pending = nil
		if problem != "" {
			warnings = append(warnings, Warning{LineNumber: lineNumber, Message: problem})
			continue
		}
		list.Entries = append(list.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan suppression list: %v", err)
	}
	return list, warnings, nil
}

// ParseFile reads the suppression list at path. A missing file degrades to
// an empty list, which means no suppressions applied.
func ParseFile(path string) (*List, []Warning, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			glog.Warningf("suppression list %s not found, no suppressions applied", path)
			return &List{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer file.Close()
	list, warnings, err := Parse(file)
	if err != nil {
		return nil, nil, fmt.Errorf("in %s: %v", path, err)
	}
	return list, warnings, nil
}

// Format renders the list back to text. Justifications come out as '#'
// comment lines above their entry, so Format followed by Parse yields an
// equal list.
func (l *List) Format() []byte {
	buf := new(bytes.Buffer)
	for i, entry := range l.Entries {
		if entry.Justification != "" {
			if i > 0 {
				// keep the comment block visually attached to its entry
				buf.WriteString("\n")
			}
			for _, line := range strings.Split(entry.Justification, "\n") {
				fmt.Fprintf(buf, "# %s\n", line)
			}
		}
		buf.WriteString(entry.Key())
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// WriteFile writes the list to path atomically.
func (l *List) WriteFile(path string) error {
	return atomic.Write(path, l.Format())
}

// Dedup returns a copy of the list with later duplicates of the same entry
// key removed. The first occurrence wins and keeps its justification.
// Parsing never deduplicates; this is an explicit rewrite step.
func (l *List) Dedup() *List {
	seen := make(map[string]bool)
	deduped := &List{}
	for _, entry := range l.Entries {
		key := entry.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped.Entries = append(deduped.Entries, entry)
	}
	return deduped
}
