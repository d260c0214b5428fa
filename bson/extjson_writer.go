// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	extValueInfinity    = "Infinity"
	extValueNegInfinity = "-Infinity"
	extValueNaN         = "NaN"
)

// Relaxed mode keeps int64 as a native JSON number only while it survives a
// float64 round trip.
const maxSafeJSONInt = int64(1) << 53

// ToJSON renders the document as extended JSON. Canonical mode wraps every
// non-JSON-native scalar in its type-annotated form; relaxed mode prefers
// native JSON numbers and readable dates, falling back to the canonical
// wrappers only where JSON cannot represent the value exactly. A RenderError
// is returned when the underlying bytes are not well-formed.
func (d *Document) ToJSON(canonical bool) (string, error) {
	c, err := d.Cursor()
	if err != nil {
		return "", RenderError{Err: err}
	}
	var buf bytes.Buffer
	if err := writeJSONDocument(&buf, c, canonical, 0); err != nil {
		return "", RenderError{Err: err}
	}
	return buf.String(), nil
}

func writeJSONDocument(buf *bytes.Buffer, c *Cursor, canonical bool, depth int) error {
	if depth > decodeMaxDepthDefault {
		return newParseError(c.pos, c.key, "document exceeds maximum nesting depth")
	}
	buf.WriteByte('{')
	first := true
	for c.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeJSONString(buf, c.Key())
		buf.WriteByte(':')
		if err := writeJSONValue(buf, c, canonical, depth); err != nil {
			return err
		}
	}
	if err := c.Err(); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONArray(buf *bytes.Buffer, c *Cursor, canonical bool, depth int) error {
	buf.WriteByte('[')
	first := true
	for c.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONValue(buf, c, canonical, depth); err != nil {
			return err
		}
	}
	if err := c.Err(); err != nil {
		return err
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, c *Cursor, canonical bool, depth int) error {
	switch c.Type() {
	case TypeDouble:
		f, err := c.Double()
		if err != nil {
			return err
		}
		writeJSONDouble(buf, f, canonical)
	case TypeString:
		s, err := c.StringValue()
		if err != nil {
			return err
		}
		writeJSONString(buf, s)
	case TypeEmbeddedDocument:
		child, err := c.Recurse()
		if err != nil {
			return err
		}
		return writeJSONDocument(buf, child, canonical, depth+1)
	case TypeArray:
		child, err := c.Recurse()
		if err != nil {
			return err
		}
		return writeJSONArray(buf, child, canonical, depth+1)
	case TypeBinary:
		bin, err := c.Binary()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$binary":{"base64":"`)
		buf.WriteString(base64.StdEncoding.EncodeToString(bin.Data))
		buf.WriteString(`","subType":"`)
		buf.WriteString(hex.EncodeToString([]byte{bin.Subtype}))
		buf.WriteString(`"}}`)
	case TypeUndefined:
		buf.WriteString(`{"$undefined":true}`)
	case TypeObjectID:
		oid, err := c.ObjectID()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$oid":"`)
		buf.WriteString(oid.Hex())
		buf.WriteString(`"}`)
	case TypeBoolean:
		b, err := c.Boolean()
		if err != nil {
			return err
		}
		if b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case TypeDateTime:
		dt, err := c.DateTime()
		if err != nil {
			return err
		}
		writeJSONDateTime(buf, dt, canonical)
	case TypeNull:
		buf.WriteString("null")
	case TypeRegex:
		r, err := c.Regex()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$regularExpression":{"pattern":`)
		writeJSONString(buf, r.Pattern)
		buf.WriteString(`,"options":`)
		writeJSONString(buf, r.Options)
		buf.WriteString(`}}`)
	case TypeDBPointer:
		dbp, err := c.DBPointer()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$dbPointer":{"$ref":`)
		writeJSONString(buf, dbp.DB)
		buf.WriteString(`,"$id":{"$oid":"`)
		buf.WriteString(dbp.Pointer.Hex())
		buf.WriteString(`"}}}`)
	case TypeJavaScript:
		code, err := c.JavaScript()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$code":`)
		writeJSONString(buf, string(code))
		buf.WriteByte('}')
	case TypeSymbol:
		s, err := c.Symbol()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$symbol":`)
		writeJSONString(buf, string(s))
		buf.WriteByte('}')
	case TypeCodeWithScope:
		code, scope, err := c.CodeWithScope()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$code":`)
		writeJSONString(buf, code)
		buf.WriteString(`,"$scope":`)
		if err := writeJSONDocument(buf, scope, canonical, depth+1); err != nil {
			return err
		}
		buf.WriteByte('}')
	case TypeInt32:
		i, err := c.Int32()
		if err != nil {
			return err
		}
		if canonical {
			buf.WriteString(`{"$numberInt":"`)
			buf.WriteString(strconv.FormatInt(int64(i), 10))
			buf.WriteString(`"}`)
		} else {
			buf.WriteString(strconv.FormatInt(int64(i), 10))
		}
	case TypeTimestamp:
		ts, err := c.Timestamp()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$timestamp":{"t":`)
		buf.WriteString(strconv.FormatUint(uint64(ts.T), 10))
		buf.WriteString(`,"i":`)
		buf.WriteString(strconv.FormatUint(uint64(ts.I), 10))
		buf.WriteString(`}}`)
	case TypeInt64:
		i, err := c.Int64()
		if err != nil {
			return err
		}
		if canonical || i > maxSafeJSONInt || i < -maxSafeJSONInt {
			buf.WriteString(`{"$numberLong":"`)
			buf.WriteString(strconv.FormatInt(i, 10))
			buf.WriteString(`"}`)
		} else {
			buf.WriteString(strconv.FormatInt(i, 10))
		}
	case TypeDecimal128:
		dec, err := c.Decimal128()
		if err != nil {
			return err
		}
		buf.WriteString(`{"$numberDecimal":"`)
		buf.WriteString(dec.String())
		buf.WriteString(`"}`)
	case TypeMaxKey:
		buf.WriteString(`{"$maxKey":1}`)
	case TypeMinKey:
		buf.WriteString(`{"$minKey":1}`)
	default:
		return UnsupportedTypeError{Tag: byte(c.Type())}
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail; invalid UTF-8 was rejected
		// by the cursor before this point.
		b = []byte(`""`)
	}
	buf.Write(b)
}

func writeJSONDouble(buf *bytes.Buffer, f float64, canonical bool) {
	var repr string
	switch {
	case math.IsNaN(f):
		repr = extValueNaN
	case math.IsInf(f, 1):
		repr = extValueInfinity
	case math.IsInf(f, -1):
		repr = extValueNegInfinity
	default:
		repr = formatDouble(f)
		if !canonical {
			buf.WriteString(repr)
			return
		}
	}
	buf.WriteString(`{"$numberDouble":"`)
	buf.WriteString(repr)
	buf.WriteString(`"}`)
}

// formatDouble renders f with the fewest digits that survive a round trip,
// keeping one decimal place for integral values so the output still reads as
// a double.
func formatDouble(f float64) string {
	shortest := strconv.FormatFloat(f, 'G', -1, 64)
	if strings.ContainsRune(shortest, 'E') {
		return shortest
	}
	if !strings.ContainsRune(shortest, '.') {
		return shortest + ".0"
	}
	return shortest
}

func writeJSONDateTime(buf *bytes.Buffer, dt DateTime, canonical bool) {
	if !canonical {
		t := dt.Time()
		if t.Year() >= 1970 && t.Year() <= 9999 {
			buf.WriteString(`{"$date":"`)
			buf.WriteString(t.Format(dateTimeJSONFormat))
			buf.WriteString(`"}`)
			return
		}
	}
	buf.WriteString(`{"$date":{"$numberLong":"`)
	buf.WriteString(strconv.FormatInt(int64(dt), 10))
	buf.WriteString(`"}}`)
}

const dateTimeJSONFormat = "2006-01-02T15:04:05.999Z07:00"
