// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package docload decodes the YAML or JSON documents the cli accepts
// (workflow definitions, mock configurations, execution input, test
// suites) into value.Value trees, bridging yaml.v2's
// map[interface{}]interface{} decode shape into the map[string]any/
// []any shapes value.FromGo understands. It never reaches into ASL
// semantics -- that's statespec/mock/testsuite's job once the document
// is a value.Value.
package docload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/stepbench/aslengine/asl/value"
)

// Document decodes path as YAML (".yaml"/".yml") or JSON (".json",
// or any other extension, since JSON is valid YAML) into a value.Value.
func Document(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, err
	}
	return Bytes(data, filepath.Ext(path))
}

// Bytes decodes data per ext (".yaml"/".yml" use yaml.v2; anything else
// is parsed as YAML too, which is a JSON superset).
func Bytes(data []byte, ext string) (value.Value, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return value.Value{}, errors.Wrap(err, fmt.Sprintf("docload: cannot decode %s document", ext))
	}
	return value.FromGo(Normalize(raw))
}

// Normalize walks a yaml.v2-decoded tree, converting every
// map[interface{}]interface{} into map[string]interface{} so
// value.FromGo's type switch recognizes it.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case int:
		return float64(t)
	default:
		return t
	}
}

// IsYAMLPath reports whether path's extension suggests YAML (used only
// to pick a default format when writing, never to reject a document).
func IsYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
