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

// Package stats summarizes an analysis run: how many violations per
// severity, what the suppression list absorbed, and the size of the
// analyzed sources.
package stats

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"github.com/hhatto/gocloc"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"naive.systems/suppress/analyzer/results"
	"naive.systems/suppress/atomic"
	"naive.systems/suppress/suppression"
)

type SeverityCount struct {
	HighestCount int `json:"highest_count"`
	HighCount    int `json:"high_count"`
	MediumCount  int `json:"medium_count"`
	LowCount     int `json:"low_count"`
	LowestCount  int `json:"lowest_count"`
}

type Summary struct {
	CommitHash      string         `json:"commit_hash,omitempty"`
	ResultCount     int            `json:"result_count"`
	Severities      SeverityCount  `json:"severities"`
	SuppressedCount int            `json:"suppressed_count"`
	Suppressed      map[string]int `json:"suppressed,omitempty"`
	StaleEntries    []string       `json:"stale_entries,omitempty"`
	LinesOfCode     int            `json:"lines_of_code,omitempty"`
}

func CountSeverities(allResults *results.ResultsList) SeverityCount {
	count := SeverityCount{}
	for _, result := range allResults.Results {
		switch result.Severity {
		case 1:
			count.HighestCount++
		case 2:
			count.HighCount++
		case 3:
			count.MediumCount++
		case 4:
			count.LowCount++
		case 5:
			count.LowestCount++
		}
	}
	return count
}

// CountSuppressed folds per-entry hit counts into per-entry-key totals.
// Duplicated entries share one key and their counts add up.
func CountSuppressed(list *suppression.List, matchCounts map[int]int) map[string]int {
	suppressed := make(map[string]int)
	for i := range list.Entries {
		if matchCounts[i] == 0 {
			continue
		}
		suppressed[list.Entries[i].Key()] += matchCounts[i]
	}
	return suppressed
}

func matchIgnoreDirPatterns(ignoreDirPatterns []string, filePath string) bool {
	for _, pattern := range ignoreDirPatterns {
		matched, err := doublestar.Match(pattern, filePath)
		if err != nil {
			glog.Errorf("malformed ignore_dir pattern %s", pattern)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// CountLines counts physical lines of code under dir. countLangs narrows
// the count to the given gocloc language names ("C", "C Header", ...);
// empty means every language gocloc knows. Files matching an ignore
// pattern do not count.
func CountLines(dir string, countLangs []string, ignoreDirPatterns []string) (int, error) {
	clocOpts := gocloc.NewClocOptions()
	languages := gocloc.NewDefinedLanguages()
	for _, lang := range countLangs {
		if _, exists := languages.Langs[lang]; exists {
			clocOpts.IncludeLangs[lang] = struct{}{}
		} else {
			glog.Warningf("%s is not a recognized language name", lang)
		}
	}
	processor := gocloc.NewProcessor(languages, clocOpts)
	result, err := processor.Analyze([]string{dir})
	if err != nil {
		return 0, fmt.Errorf("gocloc failed on %s: %v", dir, err)
	}
	sum := 0
	for _, file := range result.Files {
		if matchIgnoreDirPatterns(ignoreDirPatterns, file.Name) {
			continue
		}
		sum += int(file.Code)
	}
	return sum, nil
}

// Summarize builds the run summary. suppressedResults are the violations
// the suppression list absorbed, matchCounts the per-entry hit counts.
func Summarize(
	finalResults *results.ResultsList,
	list *suppression.List,
	matchCounts map[int]int,
	staleEntries []string,
	commitHash string,
) Summary {
	summary := Summary{
		CommitHash:   commitHash,
		ResultCount:  len(finalResults.Results),
		Severities:   CountSeverities(finalResults),
		Suppressed:   CountSuppressed(list, matchCounts),
		StaleEntries: staleEntries,
	}
	for _, count := range summary.Suppressed {
		summary.SuppressedCount += count
	}
	return summary
}

func WriteSummary(resultsDir string, summary Summary) error {
	path := filepath.Join(resultsDir, "summary.json")
	if err := atomic.WriteJSON(path, summary); err != nil {
		return fmt.Errorf("cannot write %s: %v", path, err)
	}
	return nil
}

// PrintSummary logs the summary with the suppressed entries in a stable
// order.
func PrintSummary(summary Summary) {
	glog.Infof("%d violations reported", summary.ResultCount)
	glog.Infof("severities: %d highest, %d high, %d medium, %d low, %d lowest",
		summary.Severities.HighestCount,
		summary.Severities.HighCount,
		summary.Severities.MediumCount,
		summary.Severities.LowCount,
		summary.Severities.LowestCount)
	keys := maps.Keys(summary.Suppressed)
	slices.Sort(keys)
	for _, key := range keys {
		glog.Infof("%d violations of %s suppressed", summary.Suppressed[key], key)
	}
	for _, entry := range summary.StaleEntries {
		glog.Infof("stale suppression: %s", entry)
	}
	if summary.LinesOfCode > 0 {
		glog.Infof("%d lines of code analyzed", summary.LinesOfCode)
	}
}
