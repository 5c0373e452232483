// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package logstream sinks a run's log lines to a named destination
// (stdout, a local file): the same Writer-per-key shape the teacher
// used to stream CI step logs, repurposed here for one engine run's
// logrus output.
package logstream

import "time"

// Line is one emitted log line.
type Line struct {
	Level     string
	Message   string
	Number    int
	Timestamp time.Time
}
