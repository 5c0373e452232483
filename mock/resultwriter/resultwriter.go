// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package resultwriter implements DistributedMap's ResultWriter hook
// (spec §4.5.8): an in-memory collector of iteration results, with an
// optional local tar.gz archive sink standing in for the S3 PutObject
// an AWS ResultWriter would perform.
package resultwriter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
)

// Collector accumulates one DistributedMap run's per-iteration results
// in the order iterations complete being assigned, keyed by index so
// concurrent completion order never reorders the final manifest.
type Collector struct {
	results []value.Value
}

// New returns an empty Collector sized for n iterations.
func New(n int) *Collector {
	return &Collector{results: make([]value.Value, n)}
}

// Set records the result of iteration i.
func (c *Collector) Set(i int, v value.Value) {
	c.results[i] = v
}

// Results returns the collected results, index-aligned with the Map's
// item list.
func (c *Collector) Results() []value.Value {
	return c.results
}

// Flush writes the collected results to a local directory standing in
// for spec.Bucket/spec.Prefix: one JSON file per result plus a
// manifest.json listing them, then archives the directory into a
// single tar.gz under destDir and returns its path. A nil spec is a
// no-op (DistributedMap's default when ResultWriter is unset — results
// only ever flow back through the Map state's own output).
func (c *Collector) Flush(spec *statespec.ResultWriterSpec, destDir string) (string, error) {
	if spec == nil {
		return "", nil
	}

	stageDir, err := os.MkdirTemp("", "resultwriter-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stageDir)

	manifest := make([]string, 0, len(c.results))
	for i, r := range c.results {
		name := fmt.Sprintf("%d.json", i)
		data, err := value.ToJSON(r)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(stageDir, name), data, 0o644); err != nil {
			return "", err
		}
		manifest = append(manifest, name)
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(stageDir, "manifest.json"), manifestData, 0o644); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(destDir, spec.Bucket, spec.Prefix), 0o755); err != nil {
		return "", err
	}
	archivePath := filepath.Join(destDir, spec.Bucket, spec.Prefix, "results.tar.gz")
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return "", err
	}
	sources := make([]string, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, filepath.Join(stageDir, e.Name()))
	}
	if err := archiver.Archive(sources, archivePath); err != nil {
		return "", err
	}
	return archivePath, nil
}
