// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package value

import "strings"

// SetDotted sets `val` at the dotted field path inside a deep clone of
// root, creating intermediate objects as needed. Used by ResultPath
// (spec §4.3) to merge a task result back into the original input
// without mutating shared state. Only plain `.`-separated field names
// are supported (ASL ResultPath never carries array indices).
func SetDotted(root Value, path string, val Value) Value {
	clone := root.Clone()
	if !clone.IsObject() {
		clone = Object()
	}
	segs := strings.Split(strings.TrimPrefix(path, "$."), ".")
	return setSegs(clone, segs, val)
}

func setSegs(obj Value, segs []string, val Value) Value {
	if len(segs) == 0 {
		return val
	}
	head := segs[0]
	if len(segs) == 1 {
		return obj.Set(head, val)
	}
	child, ok := obj.Get(head)
	if !ok || !child.IsObject() {
		child = Object()
	}
	return obj.Set(head, setSegs(child, segs[1:], val))
}
