// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/pretty"
)

// Document owns the raw bytes of a single BSON document: a little-endian
// int32 length header, a sequence of elements, and a trailing null byte. The
// buffer is always a complete, correctly framed document, even while the
// Document is under construction.
//
// A Document starts in construction, where elements may only be appended at
// the tail. Finalize makes it read-only; a finalized Document may be read
// concurrently from multiple goroutines. The zero concurrency guarantee for
// a Document under construction is single-writer with no concurrent readers,
// and enforcement of that contract belongs to the caller.
type Document struct {
	data      []byte
	finalized bool
}

// NewDocument creates an empty Document equivalent to {}, in construction.
func NewDocument() *Document {
	return &Document{data: []byte{0x05, 0x00, 0x00, 0x00, 0x00}}
}

// ReadDocument adopts the provided bytes as a finalized Document. The bytes
// are copied so the Document exclusively owns its buffer. Framing (length
// header and terminator) is validated here; element-level validation is
// deferred until the document is walked, so malformed element bytes surface
// from Get, AsDict, or ToJSON rather than from ReadDocument.
func ReadDocument(b []byte) (*Document, error) {
	if _, err := newCursor(b); err != nil {
		return nil, err
	}
	data := make([]byte, len(b))
	copy(data, b)
	return &Document{data: data, finalized: true}, nil
}

// NewDocumentFromDict encodes an ordered mapping into a new Document in
// construction.
func NewDocumentFromDict(dict D) (*Document, error) {
	doc := NewDocument()
	for _, e := range dict {
		if err := doc.Append(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Len returns the total byte length of the document.
func (d *Document) Len() int {
	return len(d.data)
}

// Bytes returns the document's underlying buffer. The caller must treat the
// returned slice as read-only.
func (d *Document) Bytes() []byte {
	return d.data
}

// Finalize transitions the document to its read-only state. Further appends
// fail with an AppendError.
func (d *Document) Finalize() {
	d.finalized = true
}

// Reset releases the document's buffer and returns it to an empty document
// in construction so the handle can be reused. Cursors created before Reset
// must be discarded.
func (d *Document) Reset() {
	d.data = []byte{0x05, 0x00, 0x00, 0x00, 0x00}
	d.finalized = false
}

// Cursor returns a new Cursor positioned before the document's first
// element. The cursor references the document's buffer and must not be used
// after the Document is reset.
func (d *Document) Cursor() (*Cursor, error) {
	return newCursor(d.data)
}

// findField replays a linear walk from the start of the document, stopping
// on the first element with the given key. The returned cursor is positioned
// on that element. found is false on a miss; a non-nil error means the walk
// hit malformed bytes before deciding.
func (d *Document) findField(key string) (c *Cursor, found bool, err error) {
	c, err = d.Cursor()
	if err != nil {
		return nil, false, err
	}
	for c.Next() {
		if c.Key() == key {
			return c, true, nil
		}
	}
	return nil, false, c.Err()
}

// HasField reports whether the document contains an element with the given
// key. The scan does not decode element values.
func (d *Document) HasField(key string) bool {
	_, found, _ := d.findField(key)
	return found
}

// Get returns the decoded dynamic value of the element with the given key.
// It returns a KeyNotFoundError if no such element exists.
func (d *Document) Get(key string) (interface{}, error) {
	c, found, err := d.findField(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, KeyNotFoundError{Key: key}
	}
	return decodeValue(c, 0)
}

// AsDict recursively decodes the whole document into an ordered mapping. The
// result is a fully independent copy with no reference to the document's
// buffer.
func (d *Document) AsDict() (D, error) {
	c, err := d.Cursor()
	if err != nil {
		return nil, err
	}
	return decodeDocument(c, 0)
}

// Validate walks the entire document, including embedded documents and
// arrays, and returns the first error a full decode would encounter.
func (d *Document) Validate() error {
	c, err := d.Cursor()
	if err != nil {
		return err
	}
	return validateElements(c, 0)
}

func validateElements(c *Cursor, depth int) error {
	if depth > decodeMaxDepthDefault {
		return newParseError(c.pos, c.key, "document exceeds maximum nesting depth")
	}
	for c.Next() {
		var err error
		switch c.Type() {
		case TypeEmbeddedDocument, TypeArray:
			var child *Cursor
			if child, err = c.Recurse(); err == nil {
				err = validateElements(child, depth+1)
			}
		case TypeString:
			_, err = c.StringValue()
		case TypeJavaScript:
			_, err = c.JavaScript()
		case TypeSymbol:
			_, err = c.Symbol()
		case TypeBoolean:
			_, err = c.Boolean()
		case TypeCodeWithScope:
			var child *Cursor
			if _, child, err = c.CodeWithScope(); err == nil {
				err = validateElements(child, depth+1)
			}
		}
		if err != nil {
			return err
		}
	}
	return c.Err()
}

// appendable rejects writes on finalized documents and keys that cannot be
// encoded as a BSON cstring.
func (d *Document) appendable(key string) error {
	if d.finalized {
		return AppendError{Key: key, Reason: "document is finalized"}
	}
	if strings.IndexByte(key, 0x00) >= 0 {
		return AppendError{Key: key, Reason: "key contains a null byte"}
	}
	return nil
}

// appendElement writes one complete element before the trailing null byte
// and fixes up the length header. value must be the element's encoded value
// bytes.
func (d *Document) appendElement(t Type, key string, value []byte) error {
	if err := d.appendable(key); err != nil {
		return err
	}
	b := d.data[:len(d.data)-1]
	b = append(b, byte(t))
	b = appendCString(b, key)
	b = append(b, value...)
	b = append(b, 0x00)
	d.data = b
	d.setLength()
	return nil
}

func (d *Document) setLength() {
	l := int32(len(d.data))
	d.data[0] = byte(l)
	d.data[1] = byte(l >> 8)
	d.data[2] = byte(l >> 16)
	d.data[3] = byte(l >> 24)
}

// AppendDouble appends a double element to the document.
func (d *Document) AppendDouble(key string, f float64) error {
	return d.appendElement(TypeDouble, key, appendFloat64(nil, f))
}

// AppendString appends a UTF-8 string element to the document.
func (d *Document) AppendString(key, s string) error {
	return d.appendElement(TypeString, key, appendString(nil, s))
}

// AppendDocument appends an embedded document element to the document.
func (d *Document) AppendDocument(key string, sub *Document) error {
	if sub == nil {
		return ErrNilDocument
	}
	return d.appendElement(TypeEmbeddedDocument, key, sub.data)
}

// AppendDict encodes dict as an embedded document element.
func (d *Document) AppendDict(key string, dict D) error {
	sub, err := NewDocumentFromDict(dict)
	if err != nil {
		return err
	}
	return d.AppendDocument(key, sub)
}

// AppendArray appends an array element to the document. Array elements are
// encoded as an embedded document keyed by decimal indexes.
func (d *Document) AppendArray(key string, arr A) error {
	sub := NewDocument()
	for i, v := range arr {
		if err := sub.Append(strconv.Itoa(i), v); err != nil {
			return err
		}
	}
	return d.appendElement(TypeArray, key, sub.data)
}

// AppendBinary appends a binary element with the given subtype.
func (d *Document) AppendBinary(key string, subtype byte, data []byte) error {
	value := appendi32(nil, int32(len(data)))
	value = append(value, subtype)
	value = append(value, data...)
	return d.appendElement(TypeBinary, key, value)
}

// AppendUndefined appends an undefined element to the document.
func (d *Document) AppendUndefined(key string) error {
	return d.appendElement(TypeUndefined, key, nil)
}

// AppendObjectID appends an objectID element to the document.
func (d *Document) AppendObjectID(key string, oid ObjectID) error {
	return d.appendElement(TypeObjectID, key, oid[:])
}

// AppendBoolean appends a boolean element to the document.
func (d *Document) AppendBoolean(key string, b bool) error {
	value := []byte{0x00}
	if b {
		value[0] = 0x01
	}
	return d.appendElement(TypeBoolean, key, value)
}

// AppendDateTime appends a UTC datetime element to the document.
func (d *Document) AppendDateTime(key string, dt DateTime) error {
	return d.appendElement(TypeDateTime, key, appendi64(nil, int64(dt)))
}

// AppendTime appends t as a UTC datetime element, truncated to millisecond
// precision.
func (d *Document) AppendTime(key string, t time.Time) error {
	return d.AppendDateTime(key, NewDateTimeFromTime(t))
}

// AppendNull appends a null element to the document.
func (d *Document) AppendNull(key string) error {
	return d.appendElement(TypeNull, key, nil)
}

// AppendRegex appends a regex element to the document.
func (d *Document) AppendRegex(key string, r Regex) error {
	if strings.IndexByte(r.Pattern, 0x00) >= 0 || strings.IndexByte(r.Options, 0x00) >= 0 {
		return AppendError{Key: key, Reason: "regex pattern or options contains a null byte"}
	}
	value := appendCString(nil, r.Pattern)
	value = appendCString(value, sortRegexOptions(r.Options))
	return d.appendElement(TypeRegex, key, value)
}

// sortRegexOptions normalizes regex options to the sorted order the wire
// format requires.
func sortRegexOptions(options string) string {
	runes := []rune(options)
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return string(runes)
}

// AppendDBPointer appends a dbpointer element to the document.
func (d *Document) AppendDBPointer(key string, dbp DBPointer) error {
	value := appendString(nil, dbp.DB)
	value = append(value, dbp.Pointer[:]...)
	return d.appendElement(TypeDBPointer, key, value)
}

// AppendJavaScript appends a JavaScript code element to the document.
func (d *Document) AppendJavaScript(key string, code JavaScript) error {
	return d.appendElement(TypeJavaScript, key, appendString(nil, string(code)))
}

// AppendSymbol appends a symbol element to the document.
func (d *Document) AppendSymbol(key string, s Symbol) error {
	return d.appendElement(TypeSymbol, key, appendString(nil, string(s)))
}

// AppendCodeWithScope appends a JavaScript code with scope element to the
// document.
func (d *Document) AppendCodeWithScope(key string, cws CodeWithScope) error {
	scope, err := NewDocumentFromDict(cws.Scope)
	if err != nil {
		return err
	}
	payload := appendString(nil, cws.Code)
	payload = append(payload, scope.data...)
	value := appendi32(nil, int32(len(payload)+4))
	value = append(value, payload...)
	return d.appendElement(TypeCodeWithScope, key, value)
}

// AppendInt32 appends a 32-bit integer element to the document.
func (d *Document) AppendInt32(key string, i int32) error {
	return d.appendElement(TypeInt32, key, appendi32(nil, i))
}

// AppendTimestamp appends a timestamp element to the document.
func (d *Document) AppendTimestamp(key string, ts Timestamp) error {
	value := appendu64(nil, uint64(ts.T)<<32|uint64(ts.I))
	return d.appendElement(TypeTimestamp, key, value)
}

// AppendInt64 appends a 64-bit integer element to the document.
func (d *Document) AppendInt64(key string, i int64) error {
	return d.appendElement(TypeInt64, key, appendi64(nil, i))
}

// AppendDecimal128 appends a 128-bit decimal element to the document.
func (d *Document) AppendDecimal128(key string, dec Decimal128) error {
	h, l := dec.GetBytes()
	value := appendu64(nil, l)
	value = appendu64(value, h)
	return d.appendElement(TypeDecimal128, key, value)
}

// AppendMinKey appends a min key element to the document.
func (d *Document) AppendMinKey(key string) error {
	return d.appendElement(TypeMinKey, key, nil)
}

// AppendMaxKey appends a max key element to the document.
func (d *Document) AppendMaxKey(key string) error {
	return d.appendElement(TypeMaxKey, key, nil)
}

// Append appends a value of any supported Go type to the document,
// dispatching to the typed append for its BSON type. Plain ints become
// int32 when they fit and int64 otherwise. Map values (M) are appended with
// sorted keys since Go maps carry no order; use D to control element order.
func (d *Document) Append(key string, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return d.AppendNull(key)
	case float64:
		return d.AppendDouble(key, v)
	case float32:
		return d.AppendDouble(key, float64(v))
	case string:
		return d.AppendString(key, v)
	case *Document:
		return d.AppendDocument(key, v)
	case D:
		return d.AppendDict(key, v)
	case M:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := make(D, 0, len(keys))
		for _, k := range keys {
			dict = append(dict, E{Key: k, Value: v[k]})
		}
		return d.AppendDict(key, dict)
	case A:
		return d.AppendArray(key, v)
	case []interface{}:
		return d.AppendArray(key, A(v))
	case Binary:
		return d.AppendBinary(key, v.Subtype, v.Data)
	case []byte:
		return d.AppendBinary(key, TypeBinaryGeneric, v)
	case UUID:
		return d.AppendUUID(key, v)
	case Undefined:
		return d.AppendUndefined(key)
	case ObjectID:
		return d.AppendObjectID(key, v)
	case bool:
		return d.AppendBoolean(key, v)
	case DateTime:
		return d.AppendDateTime(key, v)
	case time.Time:
		return d.AppendTime(key, v)
	case Null:
		return d.AppendNull(key)
	case Regex:
		return d.AppendRegex(key, v)
	case DBPointer:
		return d.AppendDBPointer(key, v)
	case JavaScript:
		return d.AppendJavaScript(key, v)
	case Symbol:
		return d.AppendSymbol(key, v)
	case CodeWithScope:
		return d.AppendCodeWithScope(key, v)
	case int32:
		return d.AppendInt32(key, v)
	case int:
		if v >= -2147483648 && v <= 2147483647 {
			return d.AppendInt32(key, int32(v))
		}
		return d.AppendInt64(key, int64(v))
	case Timestamp:
		return d.AppendTimestamp(key, v)
	case int64:
		return d.AppendInt64(key, v)
	case Decimal128:
		return d.AppendDecimal128(key, v)
	case MinKey:
		return d.AppendMinKey(key)
	case MaxKey:
		return d.AppendMaxKey(key)
	default:
		return AppendError{Key: key, Reason: fmt.Sprintf("cannot encode value of type %T", value)}
	}
}

// String renders the document as prettified canonical extended JSON. It
// returns the empty string if the underlying bytes are malformed.
func (d *Document) String() string {
	s, err := d.ToJSON(true)
	if err != nil {
		return ""
	}
	return string(pretty.Pretty([]byte(s)))
}
