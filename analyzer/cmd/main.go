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

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"naive.systems/suppress/analyzer/checklist"
	"naive.systems/suppress/analyzer/config"
	"naive.systems/suppress/analyzer/results"
	"naive.systems/suppress/atomic"
	"naive.systems/suppress/baseline"
	"naive.systems/suppress/basic"
	"naive.systems/suppress/checker/cppcheck"
	"naive.systems/suppress/rulesets"
	"naive.systems/suppress/stats"
	"naive.systems/suppress/suppression"
)

var (
	configDir        = flag.String("config_dir", ".naivesystems", "dir with config.yaml, suppressions.txt and baseline.json")
	srcDir           = flag.String("src_dir", ".", "dir of the source code to analyze")
	resultsDir       = flag.String("results_dir", "output", "dir to store the analysis results")
	suppressionsPath = flag.String("suppressions", "", "path of the suppression list, default <config_dir>/suppressions.txt")
	showResults      = flag.Bool("show_results", false, "print results to stdout")
	showResultsCount = flag.Bool("show_results_count", true, "print results count to stdout")
	checkOnly        = flag.Bool("check_only", false, "lint the suppression list and exit without running cppcheck")
	dedup            = flag.Bool("dedup", false, "rewrite the suppression list without duplicated entries and exit")
	lang             = flag.String("lang", "en", "language of the progress messages (en or zh)")
	sourceCharset    = flag.String("source_charset", "UTF-8", "IANA charset name of the source files")
)

var ignoreDirPatterns results.ArrayFlags

func init() {
	flag.Var(&ignoreDirPatterns, "ignore_dir", "dir to ignore results in, doublestar patterns, repeatable")
}

func reportFindings(findings []checklist.Finding, listPath string) {
	for _, finding := range findings {
		basic.PrintfWithTimeStamp("%s: %s", listPath, finding.String())
		glog.Warningf("%s: %s", listPath, finding.String())
	}
}

// writeReport renders a plain text report with the offending source lines
// inlined, one block per result.
func writeReport(allResults *results.ResultsList, reportPath, charset string) error {
	var sb strings.Builder
	for _, result := range allResults.Results {
		fmt.Fprintf(&sb, "[%s] %s\n", result.RuleId, rulesets.GetRuleFullName(result.RuleId))
		fmt.Fprintf(&sb, "%s:%d: %s\n", result.Path, result.LineNumber, result.ErrorMessage)
		code, err := rulesets.GetCode(result.Path, result.LineNumber, charset)
		if err != nil {
			glog.Warningf("cannot read %s: %v", result.Path, err)
		} else {
			sb.WriteString(code)
		}
		sb.WriteString("\n")
	}
	return atomic.Write(reportPath, []byte(sb.String()))
}

func main() {
	flag.Parse()
	defer glog.Flush()

	printer := basic.GetPrinter(*lang)
	startedAt := time.Now()

	cfg, err := config.Load(filepath.Join(*configDir, "config.yaml"))
	if err != nil {
		glog.Fatalf("%v", err)
	}
	for _, pattern := range cfg.IgnoreDir {
		ignoreDirPatterns = append(ignoreDirPatterns, pattern)
	}

	listPath := *suppressionsPath
	if listPath == "" {
		listPath = filepath.Join(*configDir, "suppressions.txt")
	}
	list, warnings, err := suppression.ParseFile(listPath)
	if err != nil {
		glog.Fatalf("%v", err)
	}

	if *dedup {
		deduped := list.Dedup()
		if err := deduped.WriteFile(listPath); err != nil {
			glog.Fatalf("%v", err)
		}
		basic.PrintfWithTimeStamp(printer.Sprintf("Rewrote %s with %d entries (%d removed)",
			listPath, len(deduped.Entries), len(list.Entries)-len(deduped.Entries)))
		return
	}

	// the error-id inventory is optional, without it internal cppcheck
	// names in the list are simply not validated
	knownIDs, err := cppcheck.ListErrorIDs(cfg.CppcheckBinary)
	if err != nil {
		glog.Warningf("no cppcheck error list: %v", err)
		knownIDs = nil
	}
	findings := checklist.Check(list, warnings, knownIDs, cfg.Policy)
	reportFindings(findings, listPath)

	if *checkOnly {
		basic.PrintfWithTimeStamp(printer.Sprintf("Checked %s: %d entries, %d findings",
			listPath, len(list.Entries), len(findings)))
		return
	}

	if err := os.MkdirAll(*resultsDir, os.ModePerm); err != nil {
		glog.Fatalf("failed to create results dir: %v", err)
	}

	sourcePaths := flag.Args()
	if len(sourcePaths) == 0 {
		sourcePaths = []string{"."}
	}
	basic.PrintfWithTimeStamp(printer.Sprintf("Start analyzing %s", *srcDir))
	allResults, err := cppcheck.Run(*srcDir, sourcePaths, cppcheck.Options{
		Binary:    cfg.CppcheckBinary,
		Standard:  cfg.Standard,
		Enable:    cfg.Enable,
		ExtraArgs: cfg.CppcheckArgs,
	})
	if err != nil {
		glog.Fatalf("%v", err)
	}

	allResults = results.ProcessIgnoreDir(allResults, &ignoreDirPatterns)
	if cfg.UseBaseline {
		allResults = baseline.RemoveKnownResults(allResults, *srcDir, *configDir, *resultsDir)
	}
	finalResults, matchCounts := results.ProcessSuppression(allResults, list)

	staleFindings := checklist.Stale(list, matchCounts)
	reportFindings(staleFindings, listPath)
	staleEntries := make([]string, 0, len(staleFindings))
	for _, finding := range staleFindings {
		staleEntries = append(staleEntries, finding.Entry)
	}

	results.SortResults(finalResults)
	results.AddID(finalResults)
	if err := results.WriteJsonResults(finalResults, filepath.Join(*resultsDir, "results.json")); err != nil {
		glog.Fatalf("%v", err)
	}
	if err := writeReport(finalResults, filepath.Join(*resultsDir, "report.txt"), *sourceCharset); err != nil {
		glog.Errorf("failed to write the report: %v", err)
	}
	if *showResults {
		results.PrintResults(finalResults, *showResultsCount)
	}

	linesOfCode, err := stats.CountLines(*srcDir, cfg.CountLangs, ignoreDirPatterns)
	if err != nil {
		glog.Warningf("failed to count lines: %v", err)
	}
	commitHash, err := baseline.GetHeadCommitHash(*srcDir)
	if err != nil {
		glog.Warningf("%v", err)
		commitHash = ""
	}
	summary := stats.Summarize(finalResults, list, matchCounts, staleEntries, commitHash)
	summary.LinesOfCode = linesOfCode
	if err := stats.WriteSummary(*resultsDir, summary); err != nil {
		glog.Errorf("%v", err)
	}
	stats.PrintSummary(summary)

	if cfg.HistoryDSN != "" {
		store, err := stats.OpenHistory(cfg.HistoryDSN)
		if err != nil {
			glog.Errorf("%v", err)
		} else {
			defer store.Close()
			if err := store.Init(); err != nil {
				glog.Errorf("%v", err)
			} else if err := store.Record(summary, time.Now()); err != nil {
				glog.Errorf("%v", err)
			}
		}
	}

	basic.PrintfWithTimeStamp(printer.Sprintf("Analysis completed (%d results) [%s]",
		summary.ResultCount, basic.FormatTimeDuration(time.Since(startedAt))))
}
