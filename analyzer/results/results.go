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
	"fmt"
	"sort"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"naive.systems/suppress/atomic"
)

type Result struct {
	Id           string `json:"id,omitempty"`
	Path         string `json:"path"`
	LineNumber   int32  `json:"line_number"`
	RuleId       string `json:"rule_id"`
	ErrorMessage string `json:"error_message"`
	Severity     int32  `json:"severity,omitempty"`
}

type ResultsList struct {
	Results []*Result `json:"results"`
}

type resultBlood struct {
	path         string
	lineNumber   int32
	ruleId       string
	errorMessage string
}

// ResultsSet is an alternative to ResultsList. When Add() is called, it checks
// resultBlood to identify unique Results. It preserves Results' adding order.
type ResultsSet struct {
	// You can manipulate ResultsList beyond the limits.
	ResultsList
	stored map[resultBlood]struct{}
}

func NewResultsSet() *ResultsSet {
	set := ResultsSet{}
	set.stored = make(map[resultBlood]struct{})
	return &set
}

func NewResultsSetFromList(list *ResultsList) *ResultsSet {
	set := NewResultsSet()
	set.AddList(list)
	return set
}

func (rs *ResultsSet) Add(r *Result) {
	blood := resultBlood{
		path:         r.Path,
		lineNumber:   r.LineNumber,
		ruleId:       r.RuleId,
		errorMessage: r.ErrorMessage,
	}
	if _, reported := rs.stored[blood]; !reported {
		rs.stored[blood] = struct{}{}
		rs.Results = append(rs.Results, r)
	}
}

func (rs *ResultsSet) AddList(list *ResultsList) {
	for _, r := range list.Results {
		rs.Add(r)
	}
}

// SortResults orders by path, then line number, then rule identifier.
func SortResults(allResults *ResultsList) {
	sort.Slice(allResults.Results, func(i, j int) bool {
		x := allResults.Results[i]
		y := allResults.Results[j]
		if x.Path != y.Path {
			return x.Path < y.Path
		}
		if x.LineNumber != y.LineNumber {
			return x.LineNumber < y.LineNumber
		}
		return x.RuleId < y.RuleId
	})
}

func AddID(allResults *ResultsList) {
	for i := 0; i < len(allResults.Results); i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			glog.Warningf("uuid.NewRandom: %v", err)
			continue
		}
		allResults.Results[i].Id = id.String()
	}
}

// WriteJsonResults writes allResults to resultsPath atomically.
func WriteJsonResults(allResults *ResultsList, resultsPath string) error {
	return atomic.WriteJSON(resultsPath, allResults)
}

func PrintResults(allResults *ResultsList, printCounts bool) {
	result_count_map := map[string]int{}
	SortResults(allResults)
	for _, result := range allResults.Results {
		fmt.Printf("%s:%d: [%s] %s\n", result.Path, result.LineNumber, result.RuleId, result.ErrorMessage)
		result_count_map[result.RuleId]++
	}
	if printCounts {
		for ruleId, count := range result_count_map {
			fmt.Printf("count: %d rule: %s\n", count, ruleId)
		}
	}
}
