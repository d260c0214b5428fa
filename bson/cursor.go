// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"math"
	"unicode/utf8"
)

type cursorState byte

const (
	cursorBeforeFirst cursorState = iota
	cursorOnElement
	cursorAfterLast
)

func (cs cursorState) String() string {
	switch cs {
	case cursorBeforeFirst:
		return "before-first"
	case cursorOnElement:
		return "on-element"
	case cursorAfterLast:
		return "after-last"
	default:
		return "unknown"
	}
}

// Cursor walks the bytes of one BSON document element by element without
// copying. It references the originating Document's buffer and must not
// outlive it. A Cursor begins before the first element; Next advances it and
// the typed accessors read the current element's value.
//
// Cursors are cheap and meant to be created fresh per traversal. They are
// safe for concurrent use only in the trivial sense that each goroutine
// should use its own.
type Cursor struct {
	data  []byte
	pos   int
	state cursorState
	err   error

	key        string
	t          Type
	valueStart int
	valueEnd   int
}

// newCursor validates the framing of data (length header, terminator) and
// returns a cursor positioned before the first element.
func newCursor(data []byte) (*Cursor, error) {
	if len(data) < 5 {
		return nil, newParseError(0, "", "document shorter than 5 bytes")
	}
	length := int(readi32(data[0:4]))
	if length != len(data) {
		return nil, newParseError(0, "", "document length header does not match buffer length")
	}
	if data[len(data)-1] != 0x00 {
		return nil, newParseError(len(data)-1, "", "document missing null terminator")
	}
	return &Cursor{data: data, pos: 4}, nil
}

// Next advances the cursor to the next element and reports whether one is
// now current. It returns false both at the end of the document and when the
// underlying bytes are malformed; Err distinguishes the two.
func (c *Cursor) Next() bool {
	if c.state == cursorAfterLast {
		return false
	}

	// Elements end one byte before the buffer does, at the terminator.
	end := len(c.data) - 1

	if c.pos > end {
		c.fail(newParseError(c.pos, "", "element runs past document terminator"))
		return false
	}
	if c.pos == end {
		if c.data[c.pos] != 0x00 {
			c.fail(newParseError(c.pos, "", "document missing null terminator"))
			return false
		}
		c.state = cursorAfterLast
		return false
	}
	if c.data[c.pos] == 0x00 {
		// A terminator before the declared end means trailing garbage.
		c.fail(newParseError(c.pos, "", "unexpected null terminator before end of document"))
		return false
	}

	t := Type(c.data[c.pos])
	key, valueStart, err := readCString(c.data, c.pos+1, end, "")
	if err != nil {
		c.fail(err)
		return false
	}
	if !t.IsValid() {
		c.fail(UnsupportedTypeError{Tag: byte(t)})
		return false
	}
	size, err := valueSize(t, c.data, valueStart, end, key)
	if err != nil {
		c.fail(err)
		return false
	}

	c.key = key
	c.t = t
	c.valueStart = valueStart
	c.valueEnd = valueStart + size
	c.pos = c.valueEnd
	c.state = cursorOnElement
	return true
}

func (c *Cursor) fail(err error) {
	c.err = err
	c.state = cursorAfterLast
}

// Err returns the error that terminated the walk, or nil if the cursor is
// healthy or simply exhausted.
func (c *Cursor) Err() error {
	return c.err
}

// Key returns the current element's key. It is only meaningful while the
// cursor is positioned on an element.
func (c *Cursor) Key() string {
	if c.state != cursorOnElement {
		return ""
	}
	return c.key
}

// Type returns the current element's type tag. It is only meaningful while
// the cursor is positioned on an element.
func (c *Cursor) Type() Type {
	if c.state != cursorOnElement {
		return Type(0)
	}
	return c.t
}

func (c *Cursor) accessible(method string, want ...Type) error {
	if c.state != cursorOnElement {
		return IteratorMisuseError{Method: method, State: c.state.String()}
	}
	for _, t := range want {
		if c.t == t {
			return nil
		}
	}
	if len(want) == 0 {
		return nil
	}
	return IteratorMisuseError{Method: method, State: "on " + c.t.String() + " element"}
}

// ValueBytes returns the raw encoded bytes of the current element's value.
// The returned slice aliases the document buffer.
func (c *Cursor) ValueBytes() ([]byte, error) {
	if err := c.accessible("ValueBytes"); err != nil {
		return nil, err
	}
	return c.data[c.valueStart:c.valueEnd], nil
}

// Double returns the current element's value as a float64.
func (c *Cursor) Double() (float64, error) {
	if err := c.accessible("Double", TypeDouble); err != nil {
		return 0, err
	}
	return math.Float64frombits(readu64(c.data[c.valueStart:])), nil
}

// StringValue returns the current element's value as a string. Invalid UTF-8
// is rejected rather than passed through.
func (c *Cursor) StringValue() (string, error) {
	if err := c.accessible("StringValue", TypeString); err != nil {
		return "", err
	}
	return c.readString(c.valueStart)
}

func (c *Cursor) readString(pos int) (string, error) {
	l := int(readi32(c.data[pos : pos+4]))
	b := c.data[pos+4 : pos+4+l-1]
	if !utf8.Valid(b) {
		return "", newParseError(pos+4, c.key, "string is not valid UTF-8")
	}
	return string(b), nil
}

// Int32 returns the current element's value as an int32.
func (c *Cursor) Int32() (int32, error) {
	if err := c.accessible("Int32", TypeInt32); err != nil {
		return 0, err
	}
	return readi32(c.data[c.valueStart:c.valueEnd]), nil
}

// Int64 returns the current element's value as an int64.
func (c *Cursor) Int64() (int64, error) {
	if err := c.accessible("Int64", TypeInt64); err != nil {
		return 0, err
	}
	return int64(readu64(c.data[c.valueStart:])), nil
}

// Boolean returns the current element's value as a bool.
func (c *Cursor) Boolean() (bool, error) {
	if err := c.accessible("Boolean", TypeBoolean); err != nil {
		return false, err
	}
	switch c.data[c.valueStart] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, newParseError(c.valueStart, c.key, "boolean must be encoded as 0x00 or 0x01")
	}
}

// ObjectID returns the current element's value as an ObjectID.
func (c *Cursor) ObjectID() (ObjectID, error) {
	if err := c.accessible("ObjectID", TypeObjectID); err != nil {
		return NilObjectID, err
	}
	var oid ObjectID
	copy(oid[:], c.data[c.valueStart:c.valueEnd])
	return oid, nil
}

// DateTime returns the current element's value as a DateTime.
func (c *Cursor) DateTime() (DateTime, error) {
	if err := c.accessible("DateTime", TypeDateTime); err != nil {
		return 0, err
	}
	return DateTime(readu64(c.data[c.valueStart:])), nil
}

// Binary returns the current element's value as a Binary. The data is copied
// out of the document buffer.
func (c *Cursor) Binary() (Binary, error) {
	if err := c.accessible("Binary", TypeBinary); err != nil {
		return Binary{}, err
	}
	subtype := c.data[c.valueStart+4]
	data := make([]byte, c.valueEnd-c.valueStart-5)
	copy(data, c.data[c.valueStart+5:c.valueEnd])
	return Binary{Subtype: subtype, Data: data}, nil
}

// Regex returns the current element's value as a Regex.
func (c *Cursor) Regex() (Regex, error) {
	if err := c.accessible("Regex", TypeRegex); err != nil {
		return Regex{}, err
	}
	pattern, next, err := readCString(c.data, c.valueStart, c.valueEnd, c.key)
	if err != nil {
		return Regex{}, err
	}
	options, _, err := readCString(c.data, next, c.valueEnd, c.key)
	if err != nil {
		return Regex{}, err
	}
	return Regex{Pattern: pattern, Options: options}, nil
}

// Timestamp returns the current element's value as a Timestamp.
func (c *Cursor) Timestamp() (Timestamp, error) {
	if err := c.accessible("Timestamp", TypeTimestamp); err != nil {
		return Timestamp{}, err
	}
	return Timestamp{
		I: readu32(c.data[c.valueStart:]),
		T: readu32(c.data[c.valueStart+4:]),
	}, nil
}

// Decimal128 returns the current element's value as a Decimal128.
func (c *Cursor) Decimal128() (Decimal128, error) {
	if err := c.accessible("Decimal128", TypeDecimal128); err != nil {
		return Decimal128{}, err
	}
	l := readu64(c.data[c.valueStart:])
	h := readu64(c.data[c.valueStart+8:])
	return NewDecimal128(h, l), nil
}

// JavaScript returns the current element's value as JavaScript code.
func (c *Cursor) JavaScript() (JavaScript, error) {
	if err := c.accessible("JavaScript", TypeJavaScript); err != nil {
		return "", err
	}
	s, err := c.readString(c.valueStart)
	return JavaScript(s), err
}

// Symbol returns the current element's value as a Symbol.
func (c *Cursor) Symbol() (Symbol, error) {
	if err := c.accessible("Symbol", TypeSymbol); err != nil {
		return "", err
	}
	s, err := c.readString(c.valueStart)
	return Symbol(s), err
}

// DBPointer returns the current element's value as a DBPointer.
func (c *Cursor) DBPointer() (DBPointer, error) {
	if err := c.accessible("DBPointer", TypeDBPointer); err != nil {
		return DBPointer{}, err
	}
	ns, err := c.readString(c.valueStart)
	if err != nil {
		return DBPointer{}, err
	}
	var oid ObjectID
	copy(oid[:], c.data[c.valueEnd-12:c.valueEnd])
	return DBPointer{DB: ns, Pointer: oid}, nil
}

// CodeWithScope returns the current element's code string and a child cursor
// over its scope document.
func (c *Cursor) CodeWithScope() (string, *Cursor, error) {
	if err := c.accessible("CodeWithScope", TypeCodeWithScope); err != nil {
		return "", nil, err
	}
	codePos := c.valueStart + 4
	l := int(readi32(c.data[codePos : codePos+4]))
	if l < 1 || codePos+4+l > c.valueEnd || c.data[codePos+4+l-1] != 0x00 {
		return "", nil, newParseError(codePos, c.key, "code string length out of range")
	}
	code, err := c.readString(codePos)
	if err != nil {
		return "", nil, err
	}
	scope, err := newCursor(c.data[codePos+4+l : c.valueEnd])
	if err != nil {
		return "", nil, err
	}
	return code, scope, nil
}

// Recurse returns a fresh child cursor over the current element's embedded
// document or array, positioned before its first element. The parent cursor
// is unaffected.
func (c *Cursor) Recurse() (*Cursor, error) {
	if err := c.accessible("Recurse", TypeEmbeddedDocument, TypeArray); err != nil {
		return nil, err
	}
	return newCursor(c.data[c.valueStart:c.valueEnd])
}
