// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/binary"
	"math"
)

// readi32 is a helper function for reading an int32 from a slice of bytes.
func readi32(b []byte) int32 {
	_ = b[3] // bounds check hint to compiler; see golang.org/issue/14808
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}

// readCString reads a NUL-terminated string from data starting at pos,
// bounded by end. It returns the string without the terminator and the
// position of the first byte after it.
func readCString(data []byte, pos, end int, key string) (string, int, error) {
	start := pos
	for pos < end && data[pos] != 0x00 {
		pos++
	}
	if pos >= end {
		return "", pos, newParseError(start, key, "cstring missing null terminator")
	}
	return string(data[start:pos]), pos + 1, nil
}

// valueSize returns the encoded length of the value with the given type
// starting at pos, validating every length prefix against end before it is
// trusted. The key parameter only provides error context.
func valueSize(t Type, data []byte, pos, end int, key string) (int, error) {
	switch t {
	case TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return 0, nil
	case TypeBoolean:
		if pos+1 > end {
			return 0, newParseError(pos, key, "boolean value truncated")
		}
		return 1, nil
	case TypeInt32:
		if pos+4 > end {
			return 0, newParseError(pos, key, "int32 value truncated")
		}
		return 4, nil
	case TypeDouble, TypeDateTime, TypeTimestamp, TypeInt64:
		if pos+8 > end {
			return 0, newParseError(pos, key, t.String()+" value truncated")
		}
		return 8, nil
	case TypeObjectID:
		if pos+12 > end {
			return 0, newParseError(pos, key, "objectID value truncated")
		}
		return 12, nil
	case TypeDecimal128:
		if pos+16 > end {
			return 0, newParseError(pos, key, "decimal128 value truncated")
		}
		return 16, nil
	case TypeString, TypeJavaScript, TypeSymbol:
		if pos+4 > end {
			return 0, newParseError(pos, key, "string length truncated")
		}
		l := int(readi32(data[pos : pos+4]))
		if l < 1 || pos+4+l > end {
			return 0, newParseError(pos, key, "string length out of range")
		}
		if data[pos+4+l-1] != 0x00 {
			return 0, newParseError(pos+4+l-1, key, "string missing null terminator")
		}
		return 4 + l, nil
	case TypeEmbeddedDocument, TypeArray:
		if pos+4 > end {
			return 0, newParseError(pos, key, "document length truncated")
		}
		l := int(readi32(data[pos : pos+4]))
		if l < 5 || pos+l > end {
			return 0, newParseError(pos, key, "document length out of range")
		}
		if data[pos+l-1] != 0x00 {
			return 0, newParseError(pos+l-1, key, "document missing null terminator")
		}
		return l, nil
	case TypeBinary:
		if pos+5 > end {
			return 0, newParseError(pos, key, "binary header truncated")
		}
		l := int(readi32(data[pos : pos+4]))
		if l < 0 || pos+5+l > end {
			return 0, newParseError(pos, key, "binary length out of range")
		}
		return 5 + l, nil
	case TypeRegex:
		cur := pos
		for i := 0; i < 2; i++ {
			for cur < end && data[cur] != 0x00 {
				cur++
			}
			if cur >= end {
				return 0, newParseError(pos, key, "regex missing null terminator")
			}
			cur++
		}
		return cur - pos, nil
	case TypeDBPointer:
		if pos+4 > end {
			return 0, newParseError(pos, key, "dbPointer length truncated")
		}
		l := int(readi32(data[pos : pos+4]))
		if l < 1 || pos+4+l+12 > end {
			return 0, newParseError(pos, key, "dbPointer length out of range")
		}
		if data[pos+4+l-1] != 0x00 {
			return 0, newParseError(pos+4+l-1, key, "dbPointer missing null terminator")
		}
		return 4 + l + 12, nil
	case TypeCodeWithScope:
		if pos+4 > end {
			return 0, newParseError(pos, key, "code with scope length truncated")
		}
		l := int(readi32(data[pos : pos+4]))
		// 4 total length + minimum string (4+1) + minimum document (5).
		if l < 14 || pos+l > end {
			return 0, newParseError(pos, key, "code with scope length out of range")
		}
		return l, nil
	default:
		return 0, UnsupportedTypeError{Tag: byte(t)}
	}
}

func appendi32(dst []byte, i32 int32) []byte {
	return append(dst, byte(i32), byte(i32>>8), byte(i32>>16), byte(i32>>24))
}

func appendi64(dst []byte, i64 int64) []byte {
	return append(dst,
		byte(i64), byte(i64>>8), byte(i64>>16), byte(i64>>24),
		byte(i64>>32), byte(i64>>40), byte(i64>>48), byte(i64>>56))
}

func appendu64(dst []byte, u64 uint64) []byte {
	return appendi64(dst, int64(u64))
}

func appendFloat64(dst []byte, f64 float64) []byte {
	return appendu64(dst, math.Float64bits(f64))
}

func appendCString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0x00)
}

func appendString(dst []byte, s string) []byte {
	dst = appendi32(dst, int32(len(s)+1))
	dst = append(dst, s...)
	return append(dst, 0x00)
}

func readu64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func readu32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
