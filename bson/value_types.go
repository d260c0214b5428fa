// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import "time"

// Binary represents a BSON binary value.
type Binary struct {
	Subtype byte
	Data    []byte
}

// Undefined represents the BSON undefined value.
type Undefined struct{}

// Null represents the BSON null value.
type Null struct{}

// Regex represents a BSON regex value.
type Regex struct {
	Pattern string
	Options string
}

// DBPointer represents a BSON dbpointer value.
type DBPointer struct {
	DB      string
	Pointer ObjectID
}

// JavaScript represents a BSON JavaScript code value.
type JavaScript string

// Symbol represents a BSON symbol value.
type Symbol string

// CodeWithScope represents a BSON JavaScript code with scope value. The scope
// is an ordered document of variable bindings.
type CodeWithScope struct {
	Code  string
	Scope D
}

// Timestamp represents a BSON timestamp value.
type Timestamp struct {
	T uint32
	I uint32
}

// DateTime represents a BSON datetime value: milliseconds since the Unix
// epoch.
type DateTime int64

// Time returns the DateTime as a time.Time in UTC.
func (dt DateTime) Time() time.Time {
	return time.Unix(int64(dt)/1000, int64(dt)%1000*1e6).UTC()
}

// NewDateTimeFromTime creates a DateTime from a time.Time, truncating to
// millisecond precision.
func NewDateTimeFromTime(t time.Time) DateTime {
	return DateTime(t.Unix()*1000 + int64(t.Nanosecond())/1e6)
}

// MinKey represents the BSON minkey value.
type MinKey struct{}

// MaxKey represents the BSON maxkey value.
type MaxKey struct{}

// E represents a single element of a D: one key and one value.
type E struct {
	Key   string
	Value interface{}
}

// D is an ordered representation of a decoded BSON document. Element order is
// preserved from the underlying bytes; keys are unique within one level.
type D []E

// Map converts the top level of d into an unordered map. Order-insensitive
// callers can use it for convenient lookups; the tree below the top level is
// shared, not copied.
func (d D) Map() M {
	m := make(M, len(d))
	for _, e := range d {
		if _, ok := m[e.Key]; !ok {
			m[e.Key] = e.Value
		}
	}
	return m
}

// Lookup returns the value for the first element of d with the given key and
// whether such an element exists.
func (d D) Lookup(key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// A is an ordered representation of a decoded BSON array.
type A []interface{}

// M is an unordered map representation of a BSON document. It loses element
// order and exists only as a convenience for callers that do not care about
// it; the codec itself always produces D.
type M map[string]interface{}
