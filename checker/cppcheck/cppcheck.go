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

// Package cppcheck drives the external cppcheck binary and parses its XML
// error stream. The suppression list is normally applied to the parsed
// results afterwards, so that per-entry hit counts are available; passing
// the list straight to the binary via SuppressionsPath also works but
// loses the counts.
package cppcheck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/google/shlex"
	"naive.systems/suppress/analyzer/results"
)

type CppCheckXMLLocation struct {
	File   string `xml:"file,attr"`
	Line   int32  `xml:"line,attr"`
	Column string `xml:"column,attr"`
}

type CppCheckXMLError struct {
	Id       string              `xml:"id,attr"`
	Severity string              `xml:"severity,attr"`
	Msg      string              `xml:"msg,attr"`
	Location CppCheckXMLLocation `xml:"location"`
}

type cppCheckXMLVersion struct {
	Version string `xml:"version,attr"`
}

type CppCheckXMLReport struct {
	Errors   []CppCheckXMLError `xml:"errors>error"`
	Cppcheck cppCheckXMLVersion `xml:"cppcheck"`
}

// severityMap converts cppcheck severities to the 1 (highest) to 5 (lowest)
// scale used in results and reports.
var severityMap = map[string]int32{
	"error":       1,
	"warning":     2,
	"style":       3,
	"performance": 4,
	"portability": 4,
	"information": 5,
}

type Options struct {
	Binary           string
	Standard         string
	Enable           string
	SuppressionsPath string
	// ExtraArgs is a single string of additional arguments, split with
	// shell-like quoting rules.
	ExtraArgs string
}

func ExecCppcheckBinary(directory string, cmd_args []string, inputCppcheckBin string) ([]byte, error) {
	cppcheckBin := inputCppcheckBin
	if cppcheckBin == "" {
		cppcheckBin = "cppcheck"
	}
	if _, err := exec.LookPath(cppcheckBin); err != nil {
		// maybe a relative path instead of a binary in $PATH
		cppcheckBin, err = filepath.Abs(inputCppcheckBin)
		if err != nil {
			glog.Errorf("cppcheck bin not found in %s", inputCppcheckBin)
			return nil, err
		}
	}
	cmd := exec.Command(cppcheckBin, cmd_args...)
	cmd.Dir = directory
	// cppcheck writes the XML error report to stderr
	var cmderr bytes.Buffer
	cmd.Stderr = &cmderr
	glog.Info("executing: ", cmd.String())
	err := cmd.Run()
	if exitError, ok := err.(*exec.ExitError); ok {
		// cppcheck exits nonzero when --error-exitcode is in the extra
		// args and violations were found. That is not a failure.
		glog.Warningf("cppcheck exited with code %d", exitError.ExitCode())
		err = nil
	}
	return cmderr.Bytes(), err
}

// ParseXMLReport converts a cppcheck XML error stream into results. The
// check id is kept verbatim, so MISRA violations reported through the misra
// addon arrive as misra-c2012-* identifiers.
func ParseXMLReport(xmlData []byte) (*results.ResultsList, error) {
	report := CppCheckXMLReport{}
	if err := xml.Unmarshal(xmlData, &report); err != nil {
		return nil, fmt.Errorf("unmarshal cppcheck errors xml: %v", err)
	}
	resultsList := &results.ResultsList{}
	for _, e := range report.Errors {
		resultsList.Results = append(resultsList.Results, &results.Result{
			Path:         e.Location.File,
			LineNumber:   e.Location.Line,
			RuleId:       e.Id,
			ErrorMessage: e.Msg,
			Severity:     severityMap[e.Severity],
		})
	}
	return resultsList, nil
}

func buildArgs(options Options, sourcePaths []string) ([]string, error) {
	cmd_args := []string{"--xml", "--quiet"}
	if options.Enable != "" {
		cmd_args = append(cmd_args, "--enable="+options.Enable)
	}
	if options.Standard != "" {
		cmd_args = append(cmd_args, "--std="+options.Standard)
	}
	if options.SuppressionsPath != "" {
		cmd_args = append(cmd_args, "--suppressions-list="+options.SuppressionsPath)
	}
	if options.ExtraArgs != "" {
		extra, err := shlex.Split(options.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("failed to split cppcheck args %q: %v", options.ExtraArgs, err)
		}
		cmd_args = append(cmd_args, extra...)
	}
	cmd_args = append(cmd_args, sourcePaths...)
	return cmd_args, nil
}

// Run checks sourcePaths (files or directories) in directory and returns the
// violations that survived the suppression list passed via the options.
func Run(directory string, sourcePaths []string, options Options) (*results.ResultsList, error) {
	if len(sourcePaths) == 0 {
		return &results.ResultsList{}, nil
	}
	cmd_args, err := buildArgs(options, sourcePaths)
	if err != nil {
		return nil, err
	}
	xmlData, err := ExecCppcheckBinary(directory, cmd_args, options.Binary)
	if err != nil {
		return nil, fmt.Errorf("failed to run cppcheck: %v", err)
	}
	return ParseXMLReport(xmlData)
}

// ListErrorIDs asks the binary for its error catalogue (--errorlist) and
// returns the set of internal check names, used to validate suppression
// entries that are not MISRA identifiers.
func ListErrorIDs(inputCppcheckBin string) (map[string]bool, error) {
	cppcheckBin := inputCppcheckBin
	if cppcheckBin == "" {
		cppcheckBin = "cppcheck"
	}
	// unlike the error report, the catalogue goes to stdout
	cmd := exec.Command(cppcheckBin, "--errorlist", "--xml")
	glog.Info("executing: ", cmd.String())
	xmlData, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run cppcheck --errorlist: %v", err)
	}
	return parseErrorIDs(xmlData)
}

func parseErrorIDs(xmlData []byte) (map[string]bool, error) {
	report := CppCheckXMLReport{}
	if err := xml.Unmarshal(xmlData, &report); err != nil {
		return nil, fmt.Errorf("unmarshal cppcheck errorlist xml: %v", err)
	}
	knownIDs := make(map[string]bool)
	for _, e := range report.Errors {
		knownIDs[e.Id] = true
	}
	return knownIDs, nil
}
