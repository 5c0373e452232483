package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepbench/aslengine/asl/value"
	"github.com/stepbench/aslengine/mock"
)

func distributedMapScopeMachine(mode string) map[string]any {
	each := map[string]any{
		"Type": "Map", "End": true,
		"ItemsPath": "$.items",
		"ItemProcessor": map[string]any{
			"StartAt": "Echo",
			"States": map[string]any{
				"Echo": map[string]any{
					"Type": "Pass", "End": true,
					"Parameters": map[string]any{"ref.$": "$outer"},
				},
			},
		},
	}
	if mode != "" {
		each["Mode"] = mode
	}
	return map[string]any{
		"StartAt": "Seed",
		"States": map[string]any{
			"Seed": map[string]any{
				"Type": "Pass", "Next": "Each",
				"Assign": map[string]any{"outer.$": "$.val"},
			},
			"Each": each,
		},
	}
}

func TestInlineMapItemProcessorInheritsOuterVars(t *testing.T) {
	m := buildMachine(t, distributedMapScopeMachine(""))
	eng := NewEngine(m, mock.NewEngine(mock.Config{}), 3, "exec-inline")

	result := eng.Run(context.Background(), value.MustFromGo(map[string]any{"val": "hi", "items": []any{1}}), "2026-01-01T00:00:00Z")
	require.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, "hi", result.Output.Items()[0].MustGet("ref").Str())
}

func TestDistributedMapItemProcessorDoesNotInheritOuterVars(t *testing.T) {
	m := buildMachine(t, distributedMapScopeMachine("DISTRIBUTED"))
	eng := NewEngine(m, mock.NewEngine(mock.Config{}), 3, "exec-distributed")

	result := eng.Run(context.Background(), value.MustFromGo(map[string]any{"val": "hi", "items": []any{1}}), "2026-01-01T00:00:00Z")
	require.Equal(t, "FAILED", result.Status)
}
