// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package run implements the "run" subcommand: it executes a single
// workflow once, against an optional mock configuration and input
// document, and prints the resulting trace and coverage as JSON.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harness/godotenv/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/cli/docload"
	"github.com/stepbench/aslengine/cli/mockconfig"
	"github.com/stepbench/aslengine/coverage"
	"github.com/stepbench/aslengine/logger"
	"github.com/stepbench/aslengine/logstream/stdout"
	"github.com/stepbench/aslengine/mock"
	"github.com/stepbench/aslengine/runtime"
)

type runCommand struct {
	envfile       string
	workflow      string
	mockfile      string
	inputfile     string
	executionName string
}

func (c *runCommand) run(*kingpin.ParseContext) error {
	godotenv.Load(c.envfile) //nolint:errcheck

	workflowDoc, err := docload.Document(c.workflow)
	if err != nil {
		logrus.WithError(err).Errorln("cannot load workflow definition")
		return err
	}
	machine, err := statespec.Build(workflowDoc)
	if err != nil {
		logrus.WithError(err).Errorln("cannot build state machine")
		return err
	}

	cfg := mock.Config{}
	if c.mockfile != "" {
		cfg, err = mockconfig.Load(c.mockfile)
		if err != nil {
			logrus.WithError(err).Errorln("cannot load mock configuration")
			return err
		}
	}

	input := value.Null()
	if c.inputfile != "" {
		input, err = docload.Document(c.inputfile)
		if err != nil {
			logrus.WithError(err).Errorln("cannot load execution input")
			return err
		}
	}

	sink := stdout.New()
	if err := sink.Open(c.executionName); err != nil {
		return err
	}
	defer sink.Close(c.executionName) //nolint:errcheck
	logrus.AddHook(logger.NewStreamHook(c.executionName, sink))

	mockEngine := mock.NewEngine(cfg)
	totalStates := coverage.CountStates(machine)
	eng := runtime.NewEngine(machine, mockEngine, totalStates, c.executionName)

	startTime := time.Now().UTC().Format(time.RFC3339)
	result := eng.Run(context.Background(), input, startTime)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if result.Status != "SUCCEEDED" {
		return fmt.Errorf("execution %s: %s", result.Status, result.Error)
	}
	return nil
}

// Register the run command.
func Register(app *kingpin.Application) {
	c := new(runCommand)

	cmd := app.Command("run", "run a workflow once").
		Action(c.run)

	cmd.Flag("env-file", "environment file").
		Default(".env").
		StringVar(&c.envfile)

	cmd.Flag("workflow", "path to the workflow definition (YAML or JSON)").
		Required().
		StringVar(&c.workflow)

	cmd.Flag("mock", "path to a mock configuration file").
		StringVar(&c.mockfile)

	cmd.Flag("input", "path to an execution input document").
		StringVar(&c.inputfile)

	cmd.Flag("execution-name", "name of this execution, used to key logs").
		Default("local").
		StringVar(&c.executionName)
}
