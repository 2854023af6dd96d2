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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
	"naive.systems/suppress/analyzer/checklist"
)

var validStandards = []string{"c89", "c90", "c99", "c11"}

type Config struct {
	CppcheckBinary string `yaml:"cppcheck_binary"`
	// CppcheckArgs is passed to cppcheck verbatim after the generated
	// arguments, with shell-like quoting.
	CppcheckArgs string `yaml:"cppcheck_args"`
	Enable       string `yaml:"enable"`
	Standard     string `yaml:"standard"`
	// IgnoreDir patterns remove results and exclude files from line
	// counting. Doublestar globs, matched against result paths.
	IgnoreDir  []string `yaml:"ignore_dir"`
	CountLangs []string `yaml:"count_langs"`
	// HistoryDSN is a PostgreSQL connection string. Empty disables run
	// history.
	HistoryDSN  string           `yaml:"history_dsn"`
	UseBaseline bool             `yaml:"use_baseline"`
	Policy      checklist.Policy `yaml:"policy"`
}

func Default() Config {
	return Config{
		Standard:   "c99",
		Enable:     "all",
		CountLangs: []string{"C", "C Header"},
		Policy:     checklist.DefaultPolicy(),
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are usable as is.
func Load(path string) (Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %v", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for _, standard := range validStandards {
		if c.Standard == standard {
			return nil
		}
	}
	return fmt.Errorf("%s is not a supported C standard, use one of %v", c.Standard, validStandards)
}
