// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package mockconfig decodes a YAML mock-configuration file into a
// mock.Config, covering all five of the mock engine's response
// variants (spec §4.4): fixed, conditional, stateful (the call-count-
// keyed shape AWS's own Step Functions Local mock file uses), error,
// and itemReader (decoded straight into ItemReaderBuckets, not a
// MockedResponse -- that variant resolves through mock/itemreader).
package mockconfig

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/cli/docload"
	"github.com/stepbench/aslengine/mock"
)

type throwFile struct {
	Error string `yaml:"error"`
	Cause string `yaml:"cause"`
}

type outcomeFile struct {
	Return interface{} `yaml:"return"`
	Throw  *throwFile  `yaml:"throw"`
}

type conditionFile struct {
	When    interface{} `yaml:"when"`
	Default bool        `yaml:"default"`
	outcomeFile `yaml:",inline"`
}

// responseFile decodes one named mocked response. Variant selects
// which of the remaining fields apply; Variant defaults to "stateful"
// when omitted, so an old-style bare call-count map (the pre-existing
// shape) keeps decoding the way it always did.
type responseFile struct {
	Variant string `yaml:"variant"`

	// stateful
	Entries map[string]outcomeFile `yaml:"entries"`

	// conditional
	Conditions []conditionFile `yaml:"conditions"`

	// fixed / error
	outcomeFile `yaml:",inline"`
}

type file struct {
	Responses         map[string]responseFile `yaml:"responses"`
	StateToResponse   map[string]string       `yaml:"stateToResponse"`
	ItemReaderBuckets map[string]string       `yaml:"itemReaderBuckets"`
	ResultWriterRoot  string                  `yaml:"resultWriterRoot"`
}

// Load reads and decodes path into a mock.Config.
func Load(path string) (mock.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mock.Config{}, err
	}
	return Decode(data)
}

// Decode parses a mock-configuration document's raw bytes.
func Decode(data []byte) (mock.Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return mock.Config{}, errors.Wrap(err, "mockconfig: cannot decode mock configuration")
	}

	cfg := mock.Config{
		StateToResponse:   f.StateToResponse,
		ItemReaderBuckets: f.ItemReaderBuckets,
		ResultWriterRoot:  f.ResultWriterRoot,
		Responses:         make(map[string]*mock.MockedResponse, len(f.Responses)),
	}

	for name, rf := range f.Responses {
		mr, err := toMockedResponse(rf)
		if err != nil {
			return mock.Config{}, errors.Wrap(err, fmt.Sprintf("mockconfig: response %q", name))
		}
		cfg.Responses[name] = mr
	}
	return cfg, nil
}

func toMockedResponse(rf responseFile) (*mock.MockedResponse, error) {
	variant := rf.Variant
	if variant == "" {
		variant = string(mock.VariantStateful)
	}

	switch mock.Variant(variant) {
	case mock.VariantFixed:
		outcome, err := toOutcome(rf.outcomeFile)
		if err != nil {
			return nil, err
		}
		return mock.NewFixedResponse(outcome), nil

	case mock.VariantError:
		outcome, err := toOutcome(rf.outcomeFile)
		if err != nil {
			return nil, err
		}
		if outcome.Throw == nil {
			return nil, fmt.Errorf("error variant requires a throw")
		}
		return mock.NewErrorResponse(*outcome.Throw), nil

	case mock.VariantConditional:
		conditions := make([]mock.Condition, 0, len(rf.Conditions))
		for i, cf := range rf.Conditions {
			outcome, err := toOutcome(cf.outcomeFile)
			if err != nil {
				return nil, fmt.Errorf("condition[%d]: %w", i, err)
			}
			cond := mock.Condition{Default: cf.Default, Outcome: outcome}
			if !cf.Default {
				when, err := value.FromGo(docload.Normalize(cf.When))
				if err != nil {
					return nil, fmt.Errorf("condition[%d]: when: %w", i, err)
				}
				cond.When = when
			}
			conditions = append(conditions, cond)
		}
		return mock.NewConditionalResponse(conditions), nil

	case mock.VariantStateful:
		outcomes := make(map[string]mock.Outcome, len(rf.Entries))
		for countKey, of := range rf.Entries {
			outcome, err := toOutcome(of)
			if err != nil {
				return nil, fmt.Errorf("entries[%s]: %w", countKey, err)
			}
			outcomes[countKey] = outcome
		}
		return mock.NewMockedResponse(outcomes)

	default:
		return nil, fmt.Errorf("unknown mock variant %q", variant)
	}
}

func toOutcome(of outcomeFile) (mock.Outcome, error) {
	if of.Throw != nil {
		return mock.Outcome{Throw: &mock.ThrowSpec{Error: of.Throw.Error, Cause: of.Throw.Cause}}, nil
	}
	v, err := value.FromGo(docload.Normalize(of.Return))
	if err != nil {
		return mock.Outcome{}, err
	}
	return mock.Outcome{Return: v}, nil
}
