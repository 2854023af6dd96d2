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

package results

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"naive.systems/suppress/suppression"
)

// ArrayFlags collects repeated string flags, e.g. -ignore_dir.
type ArrayFlags []string

func (i *ArrayFlags) String() string {
	return "array flags"
}

func (i *ArrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// ProcessIgnoreDir drops results whose path matches one of the patterns.
func ProcessIgnoreDir(allResults *ResultsList, ignoreDirPatterns *ArrayFlags) *ResultsList {
	for _, ignoreDirPattern := range *ignoreDirPatterns {
		newResults := []*Result{}
		for _, result := range allResults.Results {
			matched, err := doublestar.Match(ignoreDirPattern, result.Path)
			if err != nil {
				glog.Error("malformed ignore_dir pattern ", ignoreDirPattern)
				newResults = allResults.Results
				break
			}
			if matched {
				glog.Infof("Result in path %s ignored due to pattern %s", result.Path, ignoreDirPattern)
			} else {
				newResults = append(newResults, result)
			}
		}
		allResults.Results = newResults
	}
	return allResults
}

// ProcessSuppression drops the results matched by the suppression list and
// reports which entries fired. The returned map counts suppressed results per
// entry index in list.Entries, so the caller can both log per-rule counts and
// detect entries that matched nothing.
func ProcessSuppression(allResults *ResultsList, list *suppression.List) (*ResultsList, map[int]int) {
	matchCounts := make(map[int]int)
	newResults := []*Result{}
	for _, result := range allResults.Results {
		idx := list.MatchIndex(result.RuleId, result.Path, result.LineNumber)
		if idx >= 0 {
			matchCounts[idx]++
		} else {
			newResults = append(newResults, result)
		}
	}
	countPerRule := make(map[string]int)
	for idx, count := range matchCounts {
		countPerRule[list.Entries[idx].ID] += count
	}
	for ruleCode, count := range countPerRule {
		glog.Infof("%d violations of %s are filtered out with suppression", count, ruleCode)
	}
	allResults.Results = newResults
	return allResults, matchCounts
}
