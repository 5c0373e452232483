// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package itemreader resolves a DistributedMap state's ItemReader
// against a local directory standing in for the S3 bucket AWS would
// read from: Bucket names map to a local root directory (wired by the
// test fixture, not discovered at runtime), Key/Prefix are paths
// beneath that root.
package itemreader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linkedin/goavro/v2"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

// Roots maps an ItemReaderSpec's Bucket to the local directory
// standing in for it.
type Roots map[string]string

// Resolve reads the dataset an ItemReaderSpec describes and returns
// one value.Value per item (spec §4.5.8's ItemReader ingress). A
// Resource ending in "listObjectsV2" lists object metadata under
// Prefix without reading file content; any other Resource ("getObject")
// reads the single object at Key and decodes it per InputType.
func Resolve(spec *statespec.ItemReaderSpec, roots Roots) ([]value.Value, error) {
	root, ok := roots[spec.Bucket]
	if !ok {
		return nil, aslerrors.ItemReaderMismatchError(fmt.Sprintf("no local root configured for bucket %q", spec.Bucket))
	}

	var items []value.Value
	var err error
	if strings.HasSuffix(spec.Resource, "listObjectsV2") {
		items, err = listObjects(root, spec.Prefix)
	} else {
		items, err = getObject(root, spec.Key, spec.InputType, spec.CSVHeaders)
	}
	if err != nil {
		return nil, err
	}

	if spec.MaxItems > 0 && len(items) > spec.MaxItems {
		items = items[:spec.MaxItems]
	}
	return items, nil
}

// listObjects mimics s3:listObjectsV2: one item per file found under
// root/prefix, carrying the object's Key (relative to root), Size, and
// LastModified — never the file's content.
func listObjects(root, prefix string) ([]value.Value, error) {
	base := filepath.Join(root, prefix)
	var keys []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		keys = append(keys, rel)
		return nil
	})
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	sort.Strings(keys)

	items := make([]value.Value, len(keys))
	for i, k := range keys {
		info, serr := os.Stat(filepath.Join(root, k))
		if serr != nil {
			return nil, aslerrors.ItemReaderMismatchError(serr.Error())
		}
		items[i] = value.Object().
			Set("Key", value.String(filepath.ToSlash(k))).
			Set("Size", value.Int(int(info.Size()))).
			Set("LastModified", value.String(info.ModTime().UTC().Format("2006-01-02T15:04:05Z")))
	}
	return items, nil
}

// getObject mimics s3:getObject: reads the single file at root/key and
// decodes it per inputType into one value.Value per record.
func getObject(root, key, inputType string, csvHeaders []string) ([]value.Value, error) {
	path := filepath.Join(root, key)
	file, err := os.Open(path)
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	defer file.Close()

	switch strings.ToUpper(inputType) {
	case "CSV":
		return readCSV(file, csvHeaders)
	case "JSONL":
		return readJSONL(file)
	case "MANIFEST":
		return readManifest(file)
	case "AVRO":
		return readAvro(file)
	default:
		return nil, aslerrors.ItemReaderMismatchError(fmt.Sprintf("unsupported ItemReader InputType %q", inputType))
	}
}

func readCSV(file *os.File, headers []string) ([]value.Value, error) {
	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := headers
	data := rows
	if len(cols) == 0 {
		cols = rows[0]
		data = rows[1:]
	}

	items := make([]value.Value, 0, len(data))
	for _, row := range data {
		obj := value.Object()
		for i, col := range cols {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			obj = obj.Set(col, value.String(cell))
		}
		items = append(items, obj)
	}
	return items, nil
}

func readJSONL(file *os.File) ([]value.Value, error) {
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
			return nil, aslerrors.ItemReaderMismatchError(err.Error())
		}
		items = append(items, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	return items, nil
}

// readManifest reads an S3-inventory-style manifest: a JSON array of
// already-resolved item records (the manifest here stands in for what
// would otherwise require a second round-trip to fetch each referenced
// object).
func readManifest(file *os.File) ([]value.Value, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	v, err := value.FromJSON(data)
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}
	if !v.IsArray() {
		return nil, aslerrors.ItemReaderMismatchError("MANIFEST input did not decode to a JSON array")
	}
	return v.Items(), nil
}

func readAvro(file *os.File) ([]value.Value, error) {
	ocfr, err := goavro.NewOCFReader(file)
	if err != nil {
		return nil, aslerrors.ItemReaderMismatchError(err.Error())
	}

	var items []value.Value
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, aslerrors.ItemReaderMismatchError(err.Error())
		}
		v, err := value.FromGo(datum)
		if err != nil {
			return nil, aslerrors.ItemReaderMismatchError(err.Error())
		}
		items = append(items, v)
	}
	return items, nil
}
