// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stepbench/aslengine/logstream"
)

// StreamHook is a logrus hook that writes log entries to a logstream.Writer
// under a fixed key, so an engine run's logs land in that run's sink
// alongside its trace.
type StreamHook struct {
	key    string
	writer logstream.Writer
	number int
}

// NewStreamHook creates a new StreamHook that writes to the given writer
// under key (the execution name).
func NewStreamHook(key string, writer logstream.Writer) *StreamHook {
	return &StreamHook{key: key, writer: writer}
}

// Levels returns the log levels that this hook should be fired for.
// We capture all log levels.
func (h *StreamHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire is called when a log event is fired.
func (h *StreamHook) Fire(entry *logrus.Entry) error {
	h.number++
	line := &logstream.Line{
		Level:     entry.Level.String(),
		Message:   formatLogEntry(entry),
		Number:    h.number,
		Timestamp: entry.Time,
	}
	return h.writer.Write(h.key, []*logstream.Line{line})
}

// formatLogEntry formats a logrus entry's message and fields into one line,
// leaving time and level to the Line struct itself.
func formatLogEntry(entry *logrus.Entry) string {
	msg := entry.Message
	for k, v := range entry.Data {
		msg += fmt.Sprintf(" %s=%v", k, v)
	}
	return msg
}
