// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decimalComparer lets go-cmp compare Decimal128 values despite their
// unexported fields.
var decimalComparer = cmp.Comparer(func(a, b Decimal128) bool {
	ah, al := a.GetBytes()
	bh, bl := b.GetBytes()
	return ah == bh && al == bl
})

func TestNewDocument_Empty(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0x00}, doc.Bytes())
	assert.Equal(t, 5, doc.Len())

	dict, err := doc.AsDict()
	require.NoError(t, err)
	assert.Equal(t, D{}, dict)
}

func TestDocument_EmptyArrayField(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendArray("values", A{}))

	dict, err := doc.AsDict()
	require.NoError(t, err)
	if diff := cmp.Diff(D{{Key: "values", Value: A{}}}, dict); diff != "" {
		t.Errorf("dict mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_Scenario(t *testing.T) {
	doc, err := FromJSON(`{"a": 1, "b": [1,2,3], "c": {"d": true}}`)
	require.NoError(t, err)

	want := D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: A{int32(1), int32(2), int32(3)}},
		{Key: "c", Value: D{{Key: "d", Value: true}}},
	}
	dict, err := doc.AsDict()
	require.NoError(t, err)
	if diff := cmp.Diff(want, dict); diff != "" {
		t.Errorf("dict mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, doc.HasField("c"))
	assert.False(t, doc.HasField("missing"))

	v, err := doc.Get("c")
	require.NoError(t, err)
	if diff := cmp.Diff(D{{Key: "d", Value: true}}, v); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	s, err := doc.ToJSON(true)
	require.NoError(t, err)
	assert.Contains(t, s, `"a":{"$numberInt":"1"}`)
}

func TestDocument_GetMissingKey(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))

	_, err := doc.Get("b")
	var notFound KeyNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "b", notFound.Key)
}

func TestDocument_AppendAfterFinalize(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))
	doc.Finalize()

	err := doc.AppendInt32("b", 2)
	var appendErr AppendError
	require.True(t, errors.As(err, &appendErr))
	assert.Equal(t, "b", appendErr.Key)
}

func TestDocument_AppendKeyWithNull(t *testing.T) {
	doc := NewDocument()
	err := doc.AppendInt32("a\x00b", 1)
	var appendErr AppendError
	require.True(t, errors.As(err, &appendErr))
}

func TestDocument_AppendPreservesPriorElements(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))
	snapshot := make([]byte, doc.Len())
	copy(snapshot, doc.Bytes())

	require.NoError(t, doc.AppendString("b", "two"))

	// Appending must only grow the tail: the header changes, the existing
	// element bytes do not.
	assert.Equal(t, snapshot[4:], doc.Bytes()[4:len(snapshot)])
}

func TestDocument_LengthHeaderMatchesBuffer(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendString("s", "hello"))
	require.NoError(t, doc.AppendInt64("i", 42))

	assert.Equal(t, int32(doc.Len()), readi32(doc.Bytes()[0:4]))
	assert.Equal(t, byte(0x00), doc.Bytes()[doc.Len()-1])
}

func TestReadDocument_CopiesBuffer(t *testing.T) {
	orig := NewDocument()
	require.NoError(t, orig.AppendInt32("a", 1))

	raw := make([]byte, orig.Len())
	copy(raw, orig.Bytes())

	doc, err := ReadDocument(raw)
	require.NoError(t, err)

	// Mutating the source bytes must not affect the adopted document.
	raw[4] = 0xFF
	require.NoError(t, doc.Validate())
}

func TestReadDocument_RejectsBadFraming(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{0x04, 0x00, 0x00}},
		{"length mismatch", []byte{0x0A, 0x00, 0x00, 0x00, 0x00}},
		{"missing terminator", []byte{0x05, 0x00, 0x00, 0x00, 0x01}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadDocument(tc.data)
			var parseErr ParseError
			require.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestDocument_Reset(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))
	doc.Finalize()

	doc.Reset()
	assert.Equal(t, 5, doc.Len())
	require.NoError(t, doc.AppendInt32("b", 2), "reset documents accept appends again")
}

func TestDocument_Validate(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendDict("sub", D{{Key: "x", Value: int32(1)}}))
	require.NoError(t, doc.Validate())

	// Corrupt the embedded document's length.
	data := make([]byte, doc.Len())
	copy(data, doc.Bytes())
	data[9] = 0x7F

	adopted, err := ReadDocument(data)
	require.NoError(t, err)
	require.Error(t, adopted.Validate())
}

func TestDocument_AppendGenericDispatch(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Append("int", 5))
	require.NoError(t, doc.Append("big", int(1)<<40))
	require.NoError(t, doc.Append("nil", nil))
	require.NoError(t, doc.Append("bytes", []byte{1, 2}))

	dict, err := doc.AsDict()
	require.NoError(t, err)
	want := D{
		{Key: "int", Value: int32(5)},
		{Key: "big", Value: int64(1) << 40},
		{Key: "nil", Value: Null{}},
		{Key: "bytes", Value: Binary{Subtype: TypeBinaryGeneric, Data: []byte{1, 2}}},
	}
	if diff := cmp.Diff(want, dict); diff != "" {
		t.Errorf("dict mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_AppendUnsupportedType(t *testing.T) {
	doc := NewDocument()
	err := doc.Append("ch", make(chan int))
	var appendErr AppendError
	require.True(t, errors.As(err, &appendErr))
}

func TestDocument_String(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))
	assert.Contains(t, doc.String(), `"$numberInt"`)
}
