package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tardy-sh/clove-lang/pkg/clove"
)

// udfConfigEntry is one entry of the UDF preload file: a body expression
// source string plus its declared arity.
type udfConfigEntry struct {
	Arity int    `yaml:"arity"`
	Body  string `yaml:"body"`
}

// udfConfig is the decoded shape of the --udf-file document: category ->
// name -> entry, per spec.md §6's "structured document mapping category
// -> name -> body-string". The category level is kept purely for the
// author's own organization; it has no effect on name resolution (all
// categories flatten into one UDF table).
type udfConfig map[string]map[string]udfConfigEntry

// loadUdfFile reads path and registers every UDF it declares onto r,
// parsing each body-string fragment into an AST at load time.
func loadUdfFile(path string, r *clove.Runner) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read UDF file %s: %w", path, err)
	}

	var cfg udfConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse UDF file %s: %w", path, err)
	}

	for category, entries := range cfg {
		for name, entry := range entries {
			if err := r.LoadUdf(name, entry.Arity, entry.Body); err != nil {
				return fmt.Errorf("UDF %s/%s: %w", category, name, err)
			}
		}
	}
	return nil
}
