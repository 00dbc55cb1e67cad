package rules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load parses and validates a rule list from a reader.
func Load(r io.Reader) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a rule list from raw YAML.
func LoadBytes(data []byte) ([]Rule, error) {
	var rs []Rule
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	if len(rs) == 0 {
		return nil, ErrNoRules
	}

	if err := Validate(rs); err != nil {
		return nil, err
	}

	return rs, nil
}

// LoadFile parses and validates a rule list from a YAML file.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", path, err)
	}

	rs, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}

	return rs, nil
}

// LoadDir loads every .yaml/.yml file under dir, merging rule lists in file
// name order so reloads are deterministic.
func LoadDir(dir string) ([]Rule, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk rules directory %q: %w", dir, err)
	}

	sort.Strings(files)

	var out []Rule
	for _, path := range files {
		rs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}

	return out, nil
}
