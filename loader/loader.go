// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package loader is a peripheral file-system helper that turns a
// test/mock fixture's dataFile references into value.Value data; no
// other package in this module imports it. It provides glob
// expansion for fixture directories (doublestar, since ItemReader
// fixtures and mock-response data files are frequently nested), and
// CSV/JSONL decoding for individual files. It never runs the
// interpreter and never reaches into ASL semantics.
package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/stepbench/aslengine/asl/value"
)

// ExpandGlobs resolves a set of doublestar patterns (supporting "**")
// into a sorted, de-duplicated list of matching file paths.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("loader: bad glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadDataFile reads path and decodes it into a value.Value by
// extension: ".json" as a single JSON document, ".jsonl" as an array
// of one value per line, ".csv" as an array of row objects keyed by
// its header row.
func LoadDataFile(path string) (value.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".jsonl":
		items, err := loadJSONL(path)
		if err != nil {
			return value.Value{}, err
		}
		return value.ArraySlice(items), nil
	case ".csv":
		items, err := loadCSV(path)
		if err != nil {
			return value.Value{}, err
		}
		return value.ArraySlice(items), nil
	default:
		return value.Value{}, fmt.Errorf("loader: unsupported dataFile extension for %q", path)
	}
}

func loadJSON(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromJSON(data)
}

func loadJSONL(path string) ([]value.Value, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var items []value.Value
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := value.FromJSON([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}
		items = append(items, v)
	}
	return items, scanner.Err()
}

func loadCSV(path string) ([]value.Value, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers, data := rows[0], rows[1:]
	items := make([]value.Value, 0, len(data))
	for _, row := range data {
		obj := value.Object()
		for i, h := range headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			obj = obj.Set(h, value.String(cell))
		}
		items = append(items, obj)
	}
	return items, nil
}
