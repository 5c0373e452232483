// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package test implements the "test" subcommand: it runs a suite of
// declared test cases against one workflow and reports pass/fail for
// each, exiting non-zero when any case fails.
package test

import (
	"context"
	"fmt"
	"os"

	"github.com/harness/godotenv/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/cli/docload"
	"github.com/stepbench/aslengine/cli/mockconfig"
	"github.com/stepbench/aslengine/coverage"
	"github.com/stepbench/aslengine/testsuite"
)

type stateAssertionFile struct {
	Path     string      `yaml:"path"`
	Expected interface{} `yaml:"expected"`
}

type mapAssertionFile struct {
	Path               string `yaml:"path"`
	ExpectedIterations int    `yaml:"expectedIterations"`
}

type parallelAssertionFile struct {
	Path             string `yaml:"path"`
	ExpectedBranches []int  `yaml:"expectedBranches"`
}

type caseFile struct {
	Name          string      `yaml:"name"`
	ExecutionName string      `yaml:"executionName"`
	InputFile     string      `yaml:"inputFile"`
	Input         interface{} `yaml:"input"`
	MockFile      string      `yaml:"mockFile"`
	StartTime     string      `yaml:"startTime"`

	ExpectedStatus    string      `yaml:"expectedStatus"`
	ExpectedOutput    interface{} `yaml:"expectedOutput"`
	CheckOutput       bool        `yaml:"checkOutput"`
	ExpectedErrorType string      `yaml:"expectedErrorType"`

	States    []stateAssertionFile    `yaml:"states"`
	Maps      []mapAssertionFile      `yaml:"maps"`
	Parallels []parallelAssertionFile `yaml:"parallels"`

	MinCoveragePercentage float64 `yaml:"minCoveragePercentage"`
}

type suiteFile struct {
	Workflow string     `yaml:"workflow"`
	Cases    []caseFile `yaml:"cases"`
}

func loadSuite(path string) (*suiteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf suiteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(err, "test: cannot decode test suite document")
	}
	return &sf, nil
}

func (cf *caseFile) toTestCase(dir string) (testsuite.TestCase, error) {
	tc := testsuite.TestCase{
		Name:                  cf.Name,
		ExecutionName:         cf.ExecutionName,
		StartTime:             cf.StartTime,
		ExpectedStatus:        cf.ExpectedStatus,
		CheckOutput:           cf.CheckOutput,
		ExpectedErrorType:     cf.ExpectedErrorType,
		MinCoveragePercentage: cf.MinCoveragePercentage,
	}
	if tc.ExecutionName == "" {
		tc.ExecutionName = cf.Name
	}

	var err error
	switch {
	case cf.InputFile != "":
		tc.Input, err = docload.Document(join(dir, cf.InputFile))
	case cf.Input != nil:
		tc.Input, err = value.FromGo(docload.Normalize(cf.Input))
	default:
		tc.Input = value.Null()
	}
	if err != nil {
		return tc, err
	}

	if cf.CheckOutput {
		tc.ExpectedOutput, err = value.FromGo(docload.Normalize(cf.ExpectedOutput))
		if err != nil {
			return tc, err
		}
	}

	if cf.MockFile != "" {
		tc.MockConfig, err = mockconfig.Load(join(dir, cf.MockFile))
		if err != nil {
			return tc, err
		}
	}

	for _, sa := range cf.States {
		expected, err := value.FromGo(docload.Normalize(sa.Expected))
		if err != nil {
			return tc, err
		}
		tc.States = append(tc.States, testsuite.StateAssertion{Path: sa.Path, Expected: expected})
	}
	for _, ma := range cf.Maps {
		tc.Maps = append(tc.Maps, testsuite.MapAssertion{Path: ma.Path, ExpectedIterations: ma.ExpectedIterations})
	}
	for _, pa := range cf.Parallels {
		tc.Parallels = append(tc.Parallels, testsuite.ParallelAssertion{Path: pa.Path, ExpectedBranches: pa.ExpectedBranches})
	}

	return tc, nil
}

func join(dir, rel string) string {
	if dir == "" {
		return rel
	}
	return dir + "/" + rel
}

type testCommand struct {
	envfile  string
	suite    string
	workflow string
}

func (c *testCommand) run(*kingpin.ParseContext) error {
	godotenv.Load(c.envfile) //nolint:errcheck

	sf, err := loadSuite(c.suite)
	if err != nil {
		logrus.WithError(err).Errorln("cannot load test suite")
		return err
	}

	workflowPath := c.workflow
	if workflowPath == "" {
		workflowPath = sf.Workflow
	}
	workflowDoc, err := docload.Document(workflowPath)
	if err != nil {
		logrus.WithError(err).Errorln("cannot load workflow definition")
		return err
	}
	machine, err := statespec.Build(workflowDoc)
	if err != nil {
		logrus.WithError(err).Errorln("cannot build state machine")
		return err
	}
	totalStates := coverage.CountStates(machine)

	dir := dirOf(c.suite)
	failed := 0
	for _, cf := range sf.Cases {
		tc, err := cf.toTestCase(dir)
		if err != nil {
			logrus.WithError(err).WithField("case", cf.Name).Errorln("cannot prepare test case")
			failed++
			continue
		}

		tr := testsuite.Run(context.Background(), tc, machine, totalStates)
		if tr.Passed {
			fmt.Printf("PASS  %s\n", tr.Name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", tr.Name)
		for _, f := range tr.Failures {
			fmt.Printf("      %s: expected %s, got %s\n", f.Assertion, f.Expected, f.Actual)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d test case(s) failed", failed)
	}
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// Register the test command.
func Register(app *kingpin.Application) {
	c := new(testCommand)

	cmd := app.Command("test", "run a suite of test cases against a workflow").
		Action(c.run)

	cmd.Flag("env-file", "environment file").
		Default(".env").
		StringVar(&c.envfile)

	cmd.Flag("suite", "path to the test suite document").
		Required().
		StringVar(&c.suite)

	cmd.Flag("workflow", "path to the workflow definition, overriding the suite's own").
		StringVar(&c.workflow)
}
