// Copyright 2022 Drone.IO Inc. All rights reserved.
// Use of this source code is governed by the Polyform License
// that can be found in the LICENSE file.

package statespec

import (
	"bytes"
	"encoding/json"
)

// QueryLanguage selects which expression dialect a state (or the whole
// machine) evaluates InputPath/Parameters/Condition/etc. in.
type QueryLanguage int

const (
	QueryLanguageUnset QueryLanguage = iota
	JSONPath
	JSONata
)

func (q QueryLanguage) String() string {
	return queryLanguageID[q]
}

var queryLanguageID = map[QueryLanguage]string{
	QueryLanguageUnset: "",
	JSONPath:           "JSONPath",
	JSONata:            "JSONata",
}

var queryLanguageName = map[string]QueryLanguage{
	"":         QueryLanguageUnset,
	"JSONPath": JSONPath,
	"JSONata":  JSONata,
}

func (q *QueryLanguage) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(queryLanguageID[*q])
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}

func (q *QueryLanguage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*q = queryLanguageName[s]
	return nil
}

// ParseQueryLanguage maps a raw field value to QueryLanguage; ok is false
// for an unrecognised name. The empty string maps to QueryLanguageUnset,
// which the factory later resolves by inheritance (JSONPath at the top).
func ParseQueryLanguage(s string) (QueryLanguage, bool) {
	q, ok := queryLanguageName[s]
	return q, ok
}
