// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FromJSON parses a JSON text in the extended JSON superset (canonical or
// relaxed wrappers, or plain JSON) into a finalized Document. Failures are
// reported as a ParseError carrying the byte offset the parser had reached.
func FromJSON(text string) (*Document, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := parseJSONValue(dec)
	if err != nil {
		return nil, jsonParseError(dec, err)
	}
	if dec.More() {
		return nil, newParseError(int(dec.InputOffset()), "", "trailing data after top-level document")
	}
	dict, ok := v.(D)
	if !ok {
		return nil, newParseError(0, "", "top-level JSON value must be an object")
	}

	promoted, err := promoteExtended(dict)
	if err != nil {
		return nil, jsonParseError(dec, err)
	}
	dict, ok = promoted.(D)
	if !ok {
		return nil, newParseError(0, "", "top-level JSON value must be a document, not an extended JSON scalar")
	}

	doc, err := NewDocumentFromDict(dict)
	if err != nil {
		return nil, err
	}
	doc.Finalize()
	return doc, nil
}

func jsonParseError(dec *json.Decoder, err error) error {
	var pe ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return newParseError(int(dec.InputOffset()), "", err.Error())
}

// parseJSONValue reads one JSON value from the token stream, preserving
// object key order by building D rather than a Go map.
func parseJSONValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseJSONToken(dec, tok)
}

func parseJSONToken(dec *json.Decoder, tok json.Token) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseJSONObject(dec)
		case '[':
			return parseJSONArray(dec)
		default:
			return nil, errors.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return Null{}, nil
	case json.Number:
		return parseJSONNumber(t)
	default:
		return nil, errors.Errorf("unexpected JSON token %v", tok)
	}
}

func parseJSONObject(dec *json.Decoder) (D, error) {
	d := make(D, 0)
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("object key is not a string: %v", tok)
		}
		if _, dup := seen[key]; dup {
			return nil, errors.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}

		v, err := parseJSONValue(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "value of key %q", key)
		}
		d = append(d, E{Key: key, Value: v})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseJSONArray(dec *json.Decoder) (A, error) {
	a := make(A, 0)
	for dec.More() {
		v, err := parseJSONValue(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "array index %d", len(a))
		}
		a = append(a, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return a, nil
}

// parseJSONNumber maps a plain JSON number onto the narrowest BSON numeric
// type: int32 when it fits, then int64, then double.
func parseJSONNumber(n json.Number) (interface{}, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		i, err := n.Int64()
		if err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return int32(i), nil
			}
			return i, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, errors.Wrapf(err, "number %q", n.String())
	}
	return f, nil
}

// promoteExtended rewrites extended JSON wrapper documents within the parsed
// tree into their BSON values, recursing through documents and arrays.
func promoteExtended(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case D:
		if val, special, err := promoteWrapper(x); special || err != nil {
			return val, err
		}
		out := make(D, 0, len(x))
		for _, e := range x {
			pv, err := promoteExtended(e.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", e.Key)
			}
			out = append(out, E{Key: e.Key, Value: pv})
		}
		return out, nil
	case A:
		out := make(A, 0, len(x))
		for i, e := range x {
			pv, err := promoteExtended(e)
			if err != nil {
				return nil, errors.Wrapf(err, "array index %d", i)
			}
			out = append(out, pv)
		}
		return out, nil
	default:
		return v, nil
	}
}

// promoteWrapper recognizes the extended JSON type wrappers. special is false
// when d is an ordinary document.
func promoteWrapper(d D) (interface{}, bool, error) {
	if len(d) == 0 || !strings.HasPrefix(d[0].Key, "$") {
		return nil, false, nil
	}

	if len(d) == 2 {
		// {"$code": ..., "$scope": ...} in either key order.
		code, hasCode := d.Lookup("$code")
		scope, hasScope := d.Lookup("$scope")
		if hasCode && hasScope {
			codeStr, ok := code.(string)
			if !ok {
				return nil, true, errors.New("expected $code to be a string")
			}
			scopeD, ok := scope.(D)
			if !ok {
				return nil, true, errors.New("expected $scope to be a document")
			}
			promoted, err := promoteExtended(scopeD)
			if err != nil {
				return nil, true, errors.Wrap(err, "$scope")
			}
			return CodeWithScope{Code: codeStr, Scope: promoted.(D)}, true, nil
		}
	}
	if len(d) != 1 {
		return nil, false, nil
	}

	key, value := d[0].Key, d[0].Value
	switch key {
	case "$oid":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $oid to be a string")
		}
		oid, err := ObjectIDFromHex(s)
		if err != nil {
			return nil, true, errors.Wrap(err, "$oid")
		}
		return oid, true, nil
	case "$numberInt":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $numberInt to be a string")
		}
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, true, errors.Wrap(err, "$numberInt")
		}
		return int32(i), true, nil
	case "$numberLong":
		return promoteNumberLong(value)
	case "$numberDouble":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $numberDouble to be a string")
		}
		switch s {
		case extValueNaN:
			return math.NaN(), true, nil
		case extValueInfinity:
			return math.Inf(1), true, nil
		case extValueNegInfinity:
			return math.Inf(-1), true, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, true, errors.Wrap(err, "$numberDouble")
		}
		return f, true, nil
	case "$numberDecimal":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $numberDecimal to be a string")
		}
		dec, err := ParseDecimal128(s)
		if err != nil {
			return nil, true, errors.Wrap(err, "$numberDecimal")
		}
		return dec, true, nil
	case "$date":
		return promoteDate(value)
	case "$timestamp":
		body, ok := value.(D)
		if !ok {
			return nil, true, errors.New("expected $timestamp to be a document")
		}
		t, okT := asUint32(body.Map()["t"])
		i, okI := asUint32(body.Map()["i"])
		if len(body) != 2 || !okT || !okI {
			return nil, true, errors.New("expected $timestamp to hold numeric t and i")
		}
		return Timestamp{T: t, I: i}, true, nil
	case "$binary":
		return promoteBinary(value)
	case "$uuid":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $uuid to be a string")
		}
		id, err := ParseUUID(s)
		if err != nil {
			return nil, true, errors.Wrap(err, "$uuid")
		}
		return id.Binary(), true, nil
	case "$regularExpression":
		body, ok := value.(D)
		if !ok {
			return nil, true, errors.New("expected $regularExpression to be a document")
		}
		pattern, okP := body.Map()["pattern"].(string)
		options, okO := body.Map()["options"].(string)
		if len(body) != 2 || !okP || !okO {
			return nil, true, errors.New("expected $regularExpression to hold pattern and options strings")
		}
		return Regex{Pattern: pattern, Options: options}, true, nil
	case "$symbol":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $symbol to be a string")
		}
		return Symbol(s), true, nil
	case "$code":
		s, ok := value.(string)
		if !ok {
			return nil, true, errors.New("expected $code to be a string")
		}
		return JavaScript(s), true, nil
	case "$dbPointer":
		body, ok := value.(D)
		if !ok {
			return nil, true, errors.New("expected $dbPointer to be a document")
		}
		ref, okRef := body.Map()["$ref"].(string)
		idVal, okID := body.Map()["$id"]
		if len(body) != 2 || !okRef || !okID {
			return nil, true, errors.New("expected $dbPointer to hold $ref and $id")
		}
		promoted, err := promoteExtended(idVal)
		if err != nil {
			return nil, true, errors.Wrap(err, "$dbPointer")
		}
		oid, ok := promoted.(ObjectID)
		if !ok {
			return nil, true, errors.New("expected $dbPointer $id to be an ObjectID")
		}
		return DBPointer{DB: ref, Pointer: oid}, true, nil
	case "$undefined":
		if value != true {
			return nil, true, errors.New("expected $undefined to be true")
		}
		return Undefined{}, true, nil
	case "$minKey":
		if i, ok := asUint32(value); !ok || i != 1 {
			return nil, true, errors.New("expected $minKey to be 1")
		}
		return MinKey{}, true, nil
	case "$maxKey":
		if i, ok := asUint32(value); !ok || i != 1 {
			return nil, true, errors.New("expected $maxKey to be 1")
		}
		return MaxKey{}, true, nil
	default:
		return nil, true, errors.Errorf("unsupported extended JSON construct %q", key)
	}
}

func promoteNumberLong(value interface{}) (interface{}, bool, error) {
	s, ok := value.(string)
	if !ok {
		return nil, true, errors.New("expected $numberLong to be a string")
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, true, errors.Wrap(err, "$numberLong")
	}
	return i, true, nil
}

func promoteDate(value interface{}) (interface{}, bool, error) {
	switch v := value.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, true, errors.Wrap(err, "$date")
		}
		return NewDateTimeFromTime(t), true, nil
	case D:
		inner, _, err := promoteWrapper(v)
		if err != nil {
			return nil, true, errors.Wrap(err, "$date")
		}
		ms, ok := inner.(int64)
		if !ok {
			return nil, true, errors.New("expected $date to hold a $numberLong")
		}
		return DateTime(ms), true, nil
	default:
		return nil, true, errors.New("expected $date to be a string or a $numberLong document")
	}
}

func promoteBinary(value interface{}) (interface{}, bool, error) {
	body, ok := value.(D)
	if !ok {
		return nil, true, errors.New("expected $binary to be a document")
	}
	b64, okData := body.Map()["base64"].(string)
	sub, okSub := body.Map()["subType"].(string)
	if len(body) != 2 || !okData || !okSub {
		return nil, true, errors.New("expected $binary to hold base64 and subType strings")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, true, errors.Wrap(err, "$binary base64")
	}
	subtype, err := hex.DecodeString(sub)
	if err != nil || len(subtype) != 1 {
		return nil, true, errors.New("expected $binary subType to be one hex-encoded byte")
	}
	return Binary{Subtype: subtype[0], Data: data}, true, nil
}

// asUint32 accepts the numeric shapes the JSON parser can produce for small
// non-negative integers.
func asUint32(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case int32:
		if n < 0 {
			return 0, false
		}
		return uint32(n), true
	case int64:
		if n < 0 || n > math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	case float64:
		if n < 0 || n > math.MaxUint32 || n != math.Trunc(n) {
			return 0, false
		}
		return uint32(n), true
	default:
		return 0, false
	}
}
