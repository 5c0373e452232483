// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

// Package batch groups DistributedMap items into batches per an
// ItemBatcher spec (spec §4.5.8). Batching is sequential, not a
// load-balanced partition: items are packed greedily until a cap is
// hit, then a new batch is started.
package batch

import (
	"fmt"

	"github.com/stepbench/aslengine/asl/statespec"
	"github.com/stepbench/aslengine/asl/value"
)

// Batch groups items into batches according to spec. A nil spec yields
// one batch per item (DistributedMap's default when ItemBatcher is
// unset). Each returned batch is wrapped in the ItemBatcher "Items"
// envelope alongside BatchInput, matching what a DistributedMap
// iteration's ItemSelector sees.
func Batch(items []value.Value, spec *statespec.ItemBatcherSpec) ([]value.Value, error) {
	if spec == nil {
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = envelope(value.Array(it), value.Null())
		}
		return out, nil
	}

	maxItems := spec.MaxItemsPerBatch
	maxBytes := spec.MaxInputBytesPerBatch

	var batches [][]value.Value
	var cur []value.Value
	curBytes := 0
	for _, it := range items {
		itemBytes, err := sizeOf(it)
		if err != nil {
			return nil, fmt.Errorf("flow/batch: %w", err)
		}
		wouldExceedCount := maxItems > 0 && len(cur) >= maxItems
		wouldExceedBytes := maxBytes > 0 && len(cur) > 0 && curBytes+itemBytes > maxBytes
		if wouldExceedCount || wouldExceedBytes {
			batches = append(batches, cur)
			cur = nil
			curBytes = 0
		}
		cur = append(cur, it)
		curBytes += itemBytes
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}

	out := make([]value.Value, len(batches))
	for i, b := range batches {
		out[i] = envelope(value.ArraySlice(b), spec.BatchInput)
	}
	return out, nil
}

func envelope(items, batchInput value.Value) value.Value {
	v := value.Object().Set("Items", items)
	if !batchInput.IsNull() {
		v = v.Set("BatchInput", batchInput)
	}
	return v
}

func sizeOf(v value.Value) (int, error) {
	b, err := value.ToJSON(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
