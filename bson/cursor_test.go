// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_Walk(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("first", 1))
	require.NoError(t, doc.AppendString("second", "two"))
	require.NoError(t, doc.AppendBoolean("third", true))

	c, err := doc.Cursor()
	require.NoError(t, err)

	require.True(t, c.Next())
	assert.Equal(t, "first", c.Key())
	assert.Equal(t, TypeInt32, c.Type())
	i, err := c.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), i)

	require.True(t, c.Next())
	assert.Equal(t, "second", c.Key())
	s, err := c.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "two", s)

	require.True(t, c.Next())
	assert.Equal(t, "third", c.Key())
	b, err := c.Boolean()
	require.NoError(t, err)
	assert.True(t, b)

	require.False(t, c.Next())
	require.NoError(t, c.Err())
	require.False(t, c.Next(), "Next after exhaustion must keep returning false")
}

func TestCursor_AccessorBeforeFirst(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))

	c, err := doc.Cursor()
	require.NoError(t, err)

	_, err = c.Int32()
	var misuse IteratorMisuseError
	require.True(t, errors.As(err, &misuse))
	assert.Equal(t, "Int32", misuse.Method)
	assert.Equal(t, "before-first", misuse.State)
}

func TestCursor_AccessorAfterLast(t *testing.T) {
	doc := NewDocument()

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.False(t, c.Next())

	_, err = c.StringValue()
	var misuse IteratorMisuseError
	require.True(t, errors.As(err, &misuse))
	assert.Equal(t, "after-last", misuse.State)
}

func TestCursor_AccessorWrongType(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.True(t, c.Next())

	_, err = c.StringValue()
	var misuse IteratorMisuseError
	require.True(t, errors.As(err, &misuse))
}

func TestCursor_Recurse(t *testing.T) {
	inner := NewDocument()
	require.NoError(t, inner.AppendString("name", "inner"))

	doc := NewDocument()
	require.NoError(t, doc.AppendDocument("sub", inner))
	require.NoError(t, doc.AppendInt32("after", 2))

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.True(t, c.Next())

	child, err := c.Recurse()
	require.NoError(t, err)
	require.True(t, child.Next())
	assert.Equal(t, "name", child.Key())
	require.False(t, child.Next())
	require.NoError(t, child.Err())

	// The parent must still be positioned on the embedded document.
	assert.Equal(t, "sub", c.Key())
	require.True(t, c.Next())
	assert.Equal(t, "after", c.Key())
}

func TestCursor_RecurseOnScalar(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 1))

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.True(t, c.Next())

	_, err = c.Recurse()
	var misuse IteratorMisuseError
	require.True(t, errors.As(err, &misuse))
}

func TestCursor_UnsupportedTag(t *testing.T) {
	// One element with tag 0x7E and key "a", then the terminator.
	data := []byte{0x08, 0x00, 0x00, 0x00, 0x7E, 'a', 0x00, 0x00}

	doc, err := ReadDocument(data)
	require.NoError(t, err)

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.False(t, c.Next())

	var unsupported UnsupportedTypeError
	require.True(t, errors.As(c.Err(), &unsupported))
	assert.Equal(t, byte(0x7E), unsupported.Tag)
}

func TestCursor_TruncatedBuffer(t *testing.T) {
	// Length header declares 20 bytes but only 10 are present.
	data := []byte{0x14, 0x00, 0x00, 0x00, 0x10, 'a', 0x00, 0x01, 0x00, 0x00}

	_, err := ReadDocument(data)
	var parseErr ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestCursor_StringLengthOverrun(t *testing.T) {
	// A string element whose declared length runs past the buffer.
	doc := NewDocument()
	require.NoError(t, doc.AppendString("s", "hello"))
	data := make([]byte, doc.Len())
	copy(data, doc.Bytes())
	// Corrupt the string length prefix.
	data[7] = 0x7F

	adopted, err := ReadDocument(data)
	require.NoError(t, err)

	c, err := adopted.Cursor()
	require.NoError(t, err)
	require.False(t, c.Next())

	var parseErr ParseError
	require.True(t, errors.As(c.Err(), &parseErr))
	assert.Equal(t, "s", parseErr.Key)
	assert.NotEmpty(t, parseErr.ErrorStack())
}

func TestCursor_ValueBytes(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AppendInt32("a", 257))

	c, err := doc.Cursor()
	require.NoError(t, err)
	require.True(t, c.Next())

	raw, err := c.ValueBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x01, 0x00, 0x00}, raw)
}
