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

// Package baseline suppresses results that were already accepted on an
// earlier commit. Unlike the suppression list, which is written by hand and
// keyed by rule, the baseline is generated and keyed by individual result.
// Line numbers are tracked across commits through git diff hunks.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	git2go "github.com/libgit2/git2go/v33"
	"naive.systems/suppress/analyzer/results"
	"naive.systems/suppress/atomic"
)

type Result struct {
	RuleId     string `json:"rule_id"`
	Path       string `json:"path"`
	LineNumber int32  `json:"line_number"`
}

type Baseline struct {
	Results    []Result `json:"results"`
	CommitHash string   `json:"commit_hash"`
}

const baselineFileName = "baseline.json"

// Create writes a baseline of allResults into resultsDir. The operator
// reviews it and moves it into the config dir to accept the results.
func Create(allResults *results.ResultsList, resultsDir, currentCommitHash string) error {
	baseline := Baseline{CommitHash: currentCommitHash, Results: []Result{}}
	for _, result := range allResults.Results {
		baseline.Results = append(baseline.Results, Result{
			RuleId:     result.RuleId,
			Path:       result.Path,
			LineNumber: result.LineNumber,
		})
	}
	err := atomic.WriteJSON(filepath.Join(resultsDir, baselineFileName), baseline)
	if err != nil {
		return fmt.Errorf("cannot write %s: %v", baselineFileName, err)
	}
	return nil
}

func Load(baselinePath string) (Baseline, error) {
	var baseline Baseline
	content, err := os.ReadFile(baselinePath)
	if err != nil {
		return baseline, fmt.Errorf("cannot read %s: %v", baselinePath, err)
	}
	if err := json.Unmarshal(content, &baseline); err != nil {
		return baseline, fmt.Errorf("cannot parse %s: %v", baselinePath, err)
	}
	return baseline, nil
}

func GetHeadCommitHash(workingDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = workingDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %s", string(out))
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

type gitObject struct {
	repo               *git2go.Repository
	currentCommitTree  *git2go.Tree
	baselineCommitTree *git2go.Tree
}

func newGitObject(baseline Baseline, currentCommitHash, workingDir string) (*gitObject, error) {
	currentOid, err := git2go.NewOid(currentCommitHash)
	if err != nil {
		return nil, fmt.Errorf("git2go.NewOid failed: %v", err)
	}
	baselineOid, err := git2go.NewOid(baseline.CommitHash)
	if err != nil {
		return nil, fmt.Errorf("git2go.NewOid failed: %v", err)
	}
	repo, err := git2go.OpenRepository(workingDir)
	if err != nil {
		return nil, fmt.Errorf("git2go.OpenRepository failed: %v", err)
	}
	currentCommit, err := repo.LookupCommit(currentOid)
	if err != nil {
		return nil, fmt.Errorf("git2go.LookupCommit failed: %v", err)
	}
	baselineCommit, err := repo.LookupCommit(baselineOid)
	if err != nil {
		return nil, fmt.Errorf("git2go.LookupCommit failed: %v", err)
	}
	currentCommitTree, err := currentCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("currentCommit.Tree() failed: %v", err)
	}
	baselineCommitTree, err := baselineCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("baselineCommit.Tree() failed: %v", err)
	}
	return &gitObject{
		repo:               repo,
		currentCommitTree:  currentCommitTree,
		baselineCommitTree: baselineCommitTree,
	}, nil
}

// hunksForPath collects the diff hunks touching one file between the
// baseline commit and the current commit.
func (g *gitObject) hunksForPath(relPath string) ([]git2go.DiffHunk, error) {
	options := &git2go.DiffOptions{
		Pathspec:     []string{relPath},
		ContextLines: 0,
	}
	fileDiff, err := g.repo.DiffTreeToTree(g.baselineCommitTree, g.currentCommitTree, options)
	if err != nil {
		return nil, fmt.Errorf("DiffTreeToTree failed: %v", err)
	}
	hunks := make([]git2go.DiffHunk, 0)
	err = fileDiff.ForEach(func(file git2go.DiffDelta, progress float64) (git2go.DiffForEachHunkCallback, error) {
		return func(hunk git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			hunks = append(hunks, hunk)
			return func(line git2go.DiffLine) error {
				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("fileDiff.ForEach failed: %v", err)
	}
	return hunks, nil
}

func inHunk(linenumber, start, lines int) bool {
	return linenumber >= start && linenumber < start+lines
}

func aboveHunk(linenumber, start, lines int) bool {
	if lines == 0 {
		return linenumber <= start
	}
	return linenumber < start
}

func underHunk(linenumber, start, lines int) bool {
	if lines == 0 {
		return linenumber > start
	}
	return linenumber >= start+lines
}

// SameLineThroughHunks reports whether the line at newline in the current
// commit is the unchanged line that was at oldline in the baseline commit,
// given the diff hunks of the file between the two commits.
func SameLineThroughHunks(newline, oldline int, hunks []git2go.DiffHunk) bool {
	newPrev := 0 // the start line of the previous unchanged block
	oldPrev := 0
	for _, hunk := range hunks {
		if inHunk(newline, hunk.NewStart, hunk.NewLines) {
			return false
		} else if aboveHunk(newline, hunk.NewStart, hunk.NewLines) {
			return aboveHunk(oldline, hunk.OldStart, hunk.OldLines) && newline-newPrev == oldline-oldPrev
		} else if !underHunk(oldline, hunk.OldStart, hunk.OldLines) {
			return false
		}
		newPrev = hunk.NewStart + hunk.NewLines
		if hunk.NewLines > 0 {
			newPrev -= 1
		}
		oldPrev = hunk.OldStart + hunk.OldLines
		if hunk.OldLines > 0 {
			oldPrev -= 1
		}
	}
	return newline-newPrev == oldline-oldPrev
}

func relativePath(path, workingDir string) string {
	return strings.TrimPrefix(strings.TrimPrefix(path, workingDir), "/")
}

// RemoveKnownResults drops results recorded in configDir's baseline.json.
// When no baseline exists yet, one is generated from allResults into
// resultsDir and the results are returned unchanged. Every failure path
// degrades to "no baseline applied".
func RemoveKnownResults(allResults *results.ResultsList, workingDir, configDir, resultsDir string) *results.ResultsList {
	baselinePath := filepath.Join(configDir, baselineFileName)

	cmd := exec.Command("git", "--version")
	if err := cmd.Run(); err != nil {
		glog.Warningf("Cannot find git. Add git to PATH or disable the baseline")
		return allResults
	}
	cmd = exec.Command("git", "-C", workingDir, "rev-parse", "--git-dir")
	if err := cmd.Run(); err != nil {
		glog.Warningf("%s is not a git repo", workingDir)
		return allResults
	}

	currentCommitHash, err := GetHeadCommitHash(workingDir)
	if err != nil {
		glog.Errorf("%v", err)
		return allResults
	}
	if _, err := os.Stat(baselinePath); err != nil {
		if os.IsNotExist(err) {
			if err := Create(allResults, resultsDir, currentCommitHash); err != nil {
				glog.Errorf("%v", err)
			}
		} else {
			glog.Errorf("%v", err)
		}
		return allResults
	}

	baseline, err := Load(baselinePath)
	if err != nil {
		glog.Errorf("%v", err)
		return allResults
	}
	gitObject, err := newGitObject(baseline, currentCommitHash, workingDir)
	if err != nil {
		glog.Errorf("%v", err)
		return allResults
	}

	hunksCache := make(map[string][]git2go.DiffHunk)
	newResults := make([]*results.Result, 0)
	for _, currentResult := range allResults.Results {
		known := false
		for _, baselineResult := range baseline.Results {
			if currentResult.RuleId != baselineResult.RuleId ||
				currentResult.Path != baselineResult.Path {
				continue
			}
			relPath := relativePath(currentResult.Path, workingDir)
			hunks, cached := hunksCache[relPath]
			if !cached {
				hunks, err = gitObject.hunksForPath(relPath)
				if err != nil {
					glog.Errorf("%v", err)
					hunks = nil
				}
				hunksCache[relPath] = hunks
			}
			if SameLineThroughHunks(int(currentResult.LineNumber), int(baselineResult.LineNumber), hunks) {
				known = true
				break
			}
		}
		if !known {
			newResults = append(newResults, currentResult)
		}
	}
	glog.Infof("baseline removed %d known results", len(allResults.Results)-len(newResults))
	allResults.Results = newResults
	return allResults
}
