// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/value"
	aslerrors "github.com/stepbench/aslengine/errors"
)

func TestFixedResponseAlwaysReturnsTheSameOutcomeRegardlessOfInput(t *testing.T) {
	eng := NewEngine(Config{
		StateToResponse: map[string]string{"Ship": "r"},
		Responses:       map[string]*MockedResponse{"r": NewFixedResponse(Outcome{Return: value.String("ok")})},
	})

	for i := 0; i < 3; i++ {
		out, err := eng.Invoke("Ship", value.MustFromGo(map[string]any{"n": i}))
		require.NoError(t, err)
		assert.Equal(t, "ok", out.Str())
	}
}

func TestConditionalResponseMatchesWhenAsAStructuralSubsetOfInput(t *testing.T) {
	mr := NewConditionalResponse([]Condition{
		{When: value.MustFromGo(map[string]any{"tier": "premium"}), Outcome: Outcome{Return: value.String("fast")}},
		{Default: true, Outcome: Outcome{Return: value.String("standard")}},
	})
	eng := NewEngine(Config{
		StateToResponse: map[string]string{"Route": "r"},
		Responses:       map[string]*MockedResponse{"r": mr},
	})

	out, err := eng.Invoke("Route", value.MustFromGo(map[string]any{"tier": "premium", "id": 1.0}))
	require.NoError(t, err)
	assert.Equal(t, "fast", out.Str())

	out, err = eng.Invoke("Route", value.MustFromGo(map[string]any{"tier": "basic"}))
	require.NoError(t, err)
	assert.Equal(t, "standard", out.Str())
}

func TestConditionalResponseWithNoMatchAndNoDefaultRaisesMockNotFound(t *testing.T) {
	mr := NewConditionalResponse([]Condition{
		{When: value.MustFromGo(map[string]any{"tier": "premium"}), Outcome: Outcome{Return: value.String("fast")}},
	})
	eng := NewEngine(Config{
		StateToResponse: map[string]string{"Route": "r"},
		Responses:       map[string]*MockedResponse{"r": mr},
	})

	_, err := eng.Invoke("Route", value.MustFromGo(map[string]any{"tier": "basic"}))
	require.Error(t, err)
	_, ok := err.(*aslerrors.ExecError)
	require.True(t, ok)
}

func TestStatefulResponseAdvancesByCallCount(t *testing.T) {
	mr, err := NewMockedResponse(map[string]Outcome{
		"0":   {Return: value.String("first")},
		"1-2": {Return: value.String("retry")},
		"3-":  {Return: value.String("settled")},
	})
	require.NoError(t, err)
	eng := NewEngine(Config{
		StateToResponse: map[string]string{"Ship": "r"},
		Responses:       map[string]*MockedResponse{"r": mr},
	})

	first, err := eng.Invoke("Ship", value.Null())
	require.NoError(t, err)
	assert.Equal(t, "first", first.Str())

	for i := 0; i < 2; i++ {
		out, err := eng.Invoke("Ship", value.Null())
		require.NoError(t, err)
		assert.Equal(t, "retry", out.Str())
	}

	out, err := eng.Invoke("Ship", value.Null())
	require.NoError(t, err)
	assert.Equal(t, "settled", out.Str())
}

func TestErrorResponseAlwaysThrows(t *testing.T) {
	eng := NewEngine(Config{
		StateToResponse: map[string]string{"Ship": "r"},
		Responses:       map[string]*MockedResponse{"r": NewErrorResponse(ThrowSpec{Error: "States.TaskFailed", Cause: "boom"})},
	})

	_, err := eng.Invoke("Ship", value.Null())
	require.Error(t, err)
}
