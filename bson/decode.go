// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

// decodeMaxDepthDefault bounds container recursion so pathologically nested
// input exhausts the depth budget instead of the stack.
const decodeMaxDepthDefault = 2048

// decodeValue produces the dynamic value for the element the cursor is
// positioned on, dispatching on the element's type tag and recursing into
// embedded documents and arrays through child cursors.
func decodeValue(c *Cursor, depth int) (interface{}, error) {
	if depth > decodeMaxDepthDefault {
		return nil, newParseError(c.valueStart, c.key, "document exceeds maximum nesting depth")
	}

	switch c.Type() {
	case TypeDouble:
		return c.Double()
	case TypeString:
		return c.StringValue()
	case TypeEmbeddedDocument:
		child, err := c.Recurse()
		if err != nil {
			return nil, err
		}
		return decodeDocument(child, depth+1)
	case TypeArray:
		child, err := c.Recurse()
		if err != nil {
			return nil, err
		}
		return decodeArray(child, depth+1)
	case TypeBinary:
		return c.Binary()
	case TypeUndefined:
		return Undefined{}, nil
	case TypeObjectID:
		return c.ObjectID()
	case TypeBoolean:
		return c.Boolean()
	case TypeDateTime:
		return c.DateTime()
	case TypeNull:
		return Null{}, nil
	case TypeRegex:
		return c.Regex()
	case TypeDBPointer:
		return c.DBPointer()
	case TypeJavaScript:
		return c.JavaScript()
	case TypeSymbol:
		return c.Symbol()
	case TypeCodeWithScope:
		code, scope, err := c.CodeWithScope()
		if err != nil {
			return nil, err
		}
		d, err := decodeDocument(scope, depth+1)
		if err != nil {
			return nil, err
		}
		return CodeWithScope{Code: code, Scope: d}, nil
	case TypeInt32:
		return c.Int32()
	case TypeTimestamp:
		return c.Timestamp()
	case TypeInt64:
		return c.Int64()
	case TypeDecimal128:
		return c.Decimal128()
	case TypeMaxKey:
		return MaxKey{}, nil
	case TypeMinKey:
		return MinKey{}, nil
	default:
		return nil, UnsupportedTypeError{Tag: byte(c.Type())}
	}
}

// decodeDocument drives a cursor over a document span, collecting elements
// into an ordered D in encounter order.
func decodeDocument(c *Cursor, depth int) (D, error) {
	d := make(D, 0)
	for c.Next() {
		v, err := decodeValue(c, depth)
		if err != nil {
			return nil, err
		}
		d = append(d, E{Key: c.Key(), Value: v})
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// decodeArray drives a cursor over an array span, ignoring the numeric
// string keys entirely and collecting values in encounter order.
func decodeArray(c *Cursor, depth int) (A, error) {
	a := make(A, 0)
	for c.Next() {
		v, err := decodeValue(c, depth)
		if err != nil {
			return nil, err
		}
		a = append(a, v)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
