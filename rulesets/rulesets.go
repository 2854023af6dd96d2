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

// Package rulesets knows which rule identifiers exist and what they mean.
// It covers the MISRA C:2012 guidelines (rules and directives, including
// Amendment 1) and the internal check names of cppcheck.
package rulesets

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
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

type Category int

const (
	CategoryUnknown Category = iota
	CategoryAdvisory
	CategoryRequired
	CategoryMandatory
)

func (c Category) String() string {
	switch c {
	case CategoryAdvisory:
		return "Advisory"
	case CategoryRequired:
		return "Required"
	case CategoryMandatory:
		return "Mandatory"
	}
	return "Unknown"
}

type Kind int

const (
	KindInvalid Kind = iota
	KindMisraRule
	KindMisraDir
	KindCppcheckID
)

const misraRulePrefix = "misra-c2012-"
const misraDirPrefix = "misra-c2012-dir-"

// Highest rule number per MISRA C:2012 section, Amendment 1 included.
var ruleSectionMax = map[int]int{
	1: 4, 2: 7, 3: 2, 4: 2, 5: 9, 6: 2, 7: 4, 8: 14, 9: 5, 10: 8,
	11: 9, 12: 5, 13: 6, 14: 4, 15: 7, 16: 7, 17: 8, 18: 8, 19: 2,
	20: 14, 21: 21, 22: 10,
}

// Highest directive number per MISRA C:2012 section.
var dirSectionMax = map[int]int{
	1: 1, 2: 1, 3: 1, 4: 14,
}

var advisoryRules = map[string]bool{
	"1.2": true, "2.3": true, "2.4": true, "2.5": true, "2.6": true,
	"2.7": true, "4.2": true, "5.9": true, "8.7": true, "8.9": true,
	"8.11": true, "8.13": true, "10.5": true, "11.4": true, "11.5": true,
	"12.1": true, "12.3": true, "12.4": true, "13.3": true, "13.4": true,
	"15.1": true, "15.4": true, "15.5": true, "17.5": true, "17.8": true,
	"18.4": true, "18.5": true, "19.2": true, "20.1": true, "20.5": true,
	"20.10": true, "21.12": true,
}

var mandatoryRules = map[string]bool{
	"9.1": true, "12.5": true, "13.6": true, "17.3": true, "17.4": true,
	"17.6": true, "19.1": true, "21.13": true, "21.17": true, "21.18": true,
	"21.19": true, "21.20": true, "22.2": true, "22.4": true, "22.5": true,
	"22.6": true,
}

var advisoryDirs = map[string]bool{
	"4.2": true, "4.4": true, "4.5": true, "4.6": true, "4.8": true,
	"4.9": true, "4.13": true,
}

var ruleNumberRe = regexp.MustCompile(`^\d+\.\d+$`)
var cppcheckIDRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func splitRuleNumber(number string) (int, int, bool) {
	if !ruleNumberRe.MatchString(number) {
		return 0, 0, false
	}
	section, rule, _ := strings.Cut(number, ".")
	s, err := strconv.Atoi(section)
	if err != nil {
		return 0, 0, false
	}
	r, err := strconv.Atoi(rule)
	if err != nil {
		return 0, 0, false
	}
	return s, r, true
}

// KnownMisraRule reports whether MISRA C:2012 defines the given rule number.
func KnownMisraRule(number string) bool {
	section, rule, ok := splitRuleNumber(number)
	if !ok {
		return false
	}
	max, exist := ruleSectionMax[section]
	return exist && rule >= 1 && rule <= max
}

// KnownMisraDir reports whether MISRA C:2012 defines the given directive number.
func KnownMisraDir(number string) bool {
	section, dir, ok := splitRuleNumber(number)
	if !ok {
		return false
	}
	max, exist := dirSectionMax[section]
	return exist && dir >= 1 && dir <= max
}

// Classify determines what kind of rule identifier id is. MISRA identifiers
// with a well-formed prefix but an unknown number still classify as MISRA;
// callers should check KnownMisraRule or KnownMisraDir separately to report
// them precisely.
func Classify(id string) Kind {
	if strings.HasPrefix(id, misraDirPrefix) {
		return KindMisraDir
	}
	if strings.HasPrefix(id, misraRulePrefix) {
		return KindMisraRule
	}
	if cppcheckIDRe.MatchString(id) {
		return KindCppcheckID
	}
	return KindInvalid
}

// Number strips the MISRA prefix from id, e.g. "misra-c2012-11.4" -> "11.4"
// and "misra-c2012-dir-4.6" -> "4.6". The empty string is returned for
// non-MISRA identifiers.
func Number(id string) string {
	switch Classify(id) {
	case KindMisraDir:
		return strings.TrimPrefix(id, misraDirPrefix)
	case KindMisraRule:
		return strings.TrimPrefix(id, misraRulePrefix)
	}
	return ""
}

// RuleCategory returns the MISRA C:2012 category of id, or CategoryUnknown
// for identifiers that are not known MISRA guidelines.
func RuleCategory(id string) Category {
	number := Number(id)
	switch Classify(id) {
	case KindMisraDir:
		if !KnownMisraDir(number) {
			return CategoryUnknown
		}
		if advisoryDirs[number] {
			return CategoryAdvisory
		}
		return CategoryRequired
	case KindMisraRule:
		if !KnownMisraRule(number) {
			return CategoryUnknown
		}
		if advisoryRules[number] {
			return CategoryAdvisory
		}
		if mandatoryRules[number] {
			return CategoryMandatory
		}
		return CategoryRequired
	}
	return CategoryUnknown
}

// GetRuleFullName formats id for display, e.g. 'MISRA C:2012 Rule 11.4' or
// 'MISRA C:2012 Dir 4.6'. Identifiers that are not MISRA guidelines are
// shown as cppcheck checks.
func GetRuleFullName(id string) string {
	number := Number(id)
	switch Classify(id) {
	case KindMisraDir:
		return fmt.Sprintf("MISRA C:2012 Dir %s", number)
	case KindMisraRule:
		return fmt.Sprintf("MISRA C:2012 Rule %s", number)
	case KindCppcheckID:
		return fmt.Sprintf("cppcheck %s", id)
	}
	return ""
}

func convertCharset(b []byte, charset string) string {
	byteReader := bytes.NewReader(b)
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		glog.Warning("ianaindex.MIME.Encoding err, the charset is considered as UTF-8 by default")
		return string(b)
	}
	if e == nil {
		glog.Warning("charset not found, the charset is considered as UTF-8 by default")
		return string(b)
	}
	reader := transform.NewReader(byteReader, e.NewDecoder())
	bytes, err := io.ReadAll(reader)
	if err != nil {
		glog.Warning("io.ReadAll err, the charset is considered as UTF-8 by default")
		return string(b)
	}
	return string(bytes)
}

// GetCode renders the source around lineNumber with two lines of context on
// each side. The reported line is marked with '>'.
func GetCode(path string, lineNumber int32, charset string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lower := lineNumber - 2
	upper := lineNumber + 2
	var lineCount int32 = 0
	var output string = ""
	for scanner.Scan() {
		lineCount++
		if lineCount < lower {
			continue
		} else if lineCount > upper {
			break
		}
		var text string
		if charset == "utf8" {
			text = scanner.Text()
		} else {
			text = convertCharset(scanner.Bytes(), charset)
		}
		if lineCount == lineNumber {
			output = output + fmt.Sprintf("> %d| %s\n", lineCount, text)
		} else {
			output = output + fmt.Sprintf("%d| %s\n", lineCount, text)
		}
	}
	if err = scanner.Err(); err != nil {
		return "", err
	}
	return output, err
}
