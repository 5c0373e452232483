// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package stdout sinks a run's log lines by printing them to stdout.
package stdout

import (
	"fmt"

	"github.com/stepbench/aslengine/logstream"
)

func New() *Logger {
	return &Logger{}
}

// Logger writes every execution's log lines straight to stdout.
type Logger struct{}

// Open is a no-op; stdout needs no per-key setup.
func (f *Logger) Open(key string) error {
	return nil
}

// Close is a no-op; stdout needs no per-key teardown.
func (f *Logger) Close(key string) error {
	return nil
}

// Write prints each line prefixed with the execution key.
func (f *Logger) Write(key string, lines []*logstream.Line) error {
	for _, line := range lines {
		fmt.Printf("exec=%s level=%s time=%s log=%s\n", key, line.Level, line.Timestamp, line.Message)
	}
	return nil
}

// Error always reports no error; stdout writes cannot fail here.
func (f *Logger) Error() error {
	return nil
}
