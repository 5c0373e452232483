// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package filestore sinks a run's log lines into a local file, one per
// execution name, under a configured directory.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/stepbench/aslengine/logstream"
)

func New(relPath string) *FileStore {
	return &FileStore{
		relPath: relPath,
		state:   make(map[string]*os.File),
	}
}

// FileStore writes each execution's log lines to its own JSON-lines file.
type FileStore struct {
	mu      sync.Mutex
	relPath string
	state   map[string]*os.File
	err     error
}

// Open creates (or truncates) the file backing key.
func (f *FileStore) Open(key string) error {
	file, err := os.Create(path.Join(f.relPath, key+".log.json"))
	if err != nil {
		f.recordErr(err)
		return err
	}

	f.mu.Lock()
	f.state[key] = file
	f.mu.Unlock()
	return nil
}

// Close flushes and closes the file backing key.
func (f *FileStore) Close(key string) error {
	file, err := f.getFileRef(key)
	if err != nil {
		f.recordErr(err)
		return err
	}
	err = file.Close()
	if err != nil {
		f.recordErr(err)
	}
	return err
}

// Write appends lines, one JSON object per line, to the file backing key.
func (f *FileStore) Write(key string, lines []*logstream.Line) error {
	file, err := f.getFileRef(key)
	if err != nil {
		f.recordErr(err)
		return err
	}

	data := new(bytes.Buffer)
	for _, line := range lines {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(line); err != nil {
			logrus.WithError(err).WithField("key", key).Errorln("failed to encode line")
			f.recordErr(err)
			return err
		}
		data.Write(buf.Bytes())
	}

	if _, err = file.Write(data.Bytes()); err != nil {
		f.recordErr(err)
		return err
	}
	return file.Sync()
}

// Error reports the last write/open/close error observed, if any.
func (f *FileStore) Error() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *FileStore) recordErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FileStore) getFileRef(key string) (*os.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.state[key]
	if !ok {
		return nil, errors.New("file is not opened")
	}
	return file, nil
}
