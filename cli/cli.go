// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package cli

import (
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/stepbench/aslengine/cli/run"
	"github.com/stepbench/aslengine/cli/test"
)

// version is set at build time via -ldflags; it has no dedicated
// package since the module has no build-info tooling of its own.
var version = "0.0.0-dev"

// Command parses the command line arguments and then executes a
// subcommand program.
func Command() {
	app := kingpin.New("aslengine", "local ASL workflow interpreter and test harness")
	app.HelpFlag.Short('h')
	app.Version(version)
	app.VersionFlag.Short('v')

	run.Register(app)
	test.Register(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}
