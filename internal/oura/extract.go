// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package oura

import (
	"encoding/json"
	"fmt"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// ExtractScore narrows a collection document to data[0].score.
//
// A present but null score yields (nil, nil): the day has no score yet.
// Every structural problem (missing or non-array data, empty data, a
// non-object record, missing or non-numeric score) is reported with
// CodeOuraExtractInvalid and "key"/"index" fields naming the failing step.
func ExtractScore(doc Document) (*float64, error) {
	raw, ok := doc["data"]
	if !ok {
		return nil, rserr.New(rserr.CodeOuraExtractInvalid, "response has no \"data\" field", rserr.Field("key", "data"))
	}

	records, ok := raw.([]any)
	if !ok {
		return nil, rserr.New(rserr.CodeOuraExtractInvalid,
			fmt.Sprintf("\"data\" is %T, not an array", raw), rserr.Field("key", "data"))
	}
	if len(records) == 0 {
		return nil, rserr.New(rserr.CodeOuraExtractInvalid, "\"data\" array is empty", rserr.Field("index", 0))
	}

	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, rserr.New(rserr.CodeOuraExtractInvalid,
			fmt.Sprintf("data[0] is %T, not an object", records[0]), rserr.Field("index", 0))
	}

	score, ok := first["score"]
	if !ok {
		return nil, rserr.New(rserr.CodeOuraExtractInvalid, "data[0] has no \"score\" field", rserr.Field("key", "score"))
	}

	switch v := score.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, rserr.Wrap(err, rserr.CodeOuraExtractInvalid, "data[0].score is not numeric", rserr.Field("key", "score"))
		}
		return &f, nil
	default:
		return nil, rserr.New(rserr.CodeOuraExtractInvalid,
			fmt.Sprintf("data[0].score is %T, not a number", score), rserr.Field("key", "score"))
	}
}
