// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package logstream

// Writer sinks one run's log lines under a key (the execution name).
type Writer interface {
	Open(key string) error
	Write(key string, lines []*Line) error
	Close(key string) error
	Error() error
}

type nopWriter struct{}

func (*nopWriter) Open(string) error           { return nil }
func (*nopWriter) Write(string, []*Line) error { return nil }
func (*nopWriter) Close(string) error          { return nil }
func (*nopWriter) Error() error                { return nil }

// NopWriter discards every line; used by callers that don't want a
// run's logs to go anywhere.
func NopWriter() Writer {
	return new(nopWriter)
}
