// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-stack/stack"
)

// ErrNilDocument indicates that an operation was attempted on a nil *Document.
var ErrNilDocument = errors.New("document is nil")

// ParseError indicates that a byte buffer does not contain a well-formed BSON
// document: it is truncated, a length field overruns the enclosing buffer, a
// key is missing its terminator, or a string holds invalid UTF-8. Offset is
// the position within the buffer at which parsing failed and Key, when
// non-empty, names the element being read.
type ParseError struct {
	Offset int
	Key    string
	Msg    string

	Stack stack.CallStack
}

func newParseError(offset int, key, msg string) ParseError {
	return ParseError{Offset: offset, Key: key, Msg: msg, Stack: stack.Trace().TrimRuntime()}
}

// Error implements the error interface.
func (pe ParseError) Error() string {
	if pe.Key != "" {
		return fmt.Sprintf("invalid BSON at offset %d (key %q): %s", pe.Offset, pe.Key, pe.Msg)
	}
	return fmt.Sprintf("invalid BSON at offset %d: %s", pe.Offset, pe.Msg)
}

// ErrorStack returns a string representing the stack at the point where the
// error occurred.
func (pe ParseError) ErrorStack() string {
	s := bytes.NewBufferString(pe.Error())
	s.WriteString(": [")

	for i, call := range pe.Stack {
		if i != 0 {
			s.WriteString(", ")
		}

		// go vet doesn't like %k even though it's part of stack's API, so we
		// move the format string so it doesn't complain.
		callFormat := "%k.%n %v"

		s.WriteString(fmt.Sprintf(callFormat, call, call, call))
	}

	s.WriteRune(']')

	return s.String()
}

// UnsupportedTypeError indicates that a wire type byte outside the closed
// enumeration was encountered while decoding.
type UnsupportedTypeError struct {
	Tag byte
}

// Error implements the error interface.
func (ute UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported BSON type byte 0x%02X", ute.Tag)
}

// KeyNotFoundError indicates that a lookup did not match any element of the
// document.
type KeyNotFoundError struct {
	Key string
}

// Error implements the error interface.
func (knf KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found", knf.Key)
}

// AppendError indicates that a write to a Document was rejected, either
// because the document is finalized or because the key cannot be encoded as
// a BSON cstring.
type AppendError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (ae AppendError) Error() string {
	return fmt.Sprintf("cannot append %q: %s", ae.Key, ae.Reason)
}

// IteratorMisuseError indicates that a Cursor accessor was called while the
// cursor was not positioned on an element.
type IteratorMisuseError struct {
	Method string
	State  string
}

// Error implements the error interface.
func (ime IteratorMisuseError) Error() string {
	return fmt.Sprintf("call of %s on cursor in state %s", ime.Method, ime.State)
}

// RenderError indicates that a Document could not be rendered as JSON,
// typically because the underlying bytes are not well-formed.
type RenderError struct {
	Err error
}

// Error implements the error interface.
func (re RenderError) Error() string {
	return "cannot render document as JSON: " + re.Err.Error()
}

// Unwrap returns the underlying error.
func (re RenderError) Unwrap() error { return re.Err }

// Error domains used by ErrorInfo.
const (
	ErrorDomainParse    uint32 = 1
	ErrorDomainLookup   uint32 = 2
	ErrorDomainAppend   uint32 = 3
	ErrorDomainIterator uint32 = 4
	ErrorDomainRender   uint32 = 5
	ErrorDomainUnknown  uint32 = 0
)

// Error codes used by ErrorInfo.
const (
	ErrorCodeMalformed       uint32 = 1
	ErrorCodeUnsupportedType uint32 = 2
	ErrorCodeKeyNotFound     uint32 = 3
	ErrorCodeReadOnly        uint32 = 4
	ErrorCodeMisuse          uint32 = 5
	ErrorCodeRender          uint32 = 6
	ErrorCodeUnknown         uint32 = 0
)

// errorInfoMessageCap bounds ErrorInfo.Message. Longer messages are
// truncated, never overrun.
const errorInfoMessageCap = 504

// ErrorInfo is a flat, bounded error value for callers that carry failures
// across boundaries where Go error chains are inconvenient. It is meant to be
// constructed from a failing operation's error, inspected, and discarded.
type ErrorInfo struct {
	Domain  uint32
	Code    uint32
	Message string
}

// NewErrorInfo classifies err into a (domain, code) pair and captures its
// message, truncated to a fixed capacity.
func NewErrorInfo(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	info := ErrorInfo{Domain: ErrorDomainUnknown, Code: ErrorCodeUnknown}

	var (
		parseErr  ParseError
		unsupErr  UnsupportedTypeError
		notFound  KeyNotFoundError
		appendErr AppendError
		misuseErr IteratorMisuseError
		renderErr RenderError
	)
	switch {
	case errors.As(err, &parseErr):
		info.Domain, info.Code = ErrorDomainParse, ErrorCodeMalformed
	case errors.As(err, &unsupErr):
		info.Domain, info.Code = ErrorDomainParse, ErrorCodeUnsupportedType
	case errors.As(err, &notFound):
		info.Domain, info.Code = ErrorDomainLookup, ErrorCodeKeyNotFound
	case errors.As(err, &appendErr):
		info.Domain, info.Code = ErrorDomainAppend, ErrorCodeReadOnly
	case errors.As(err, &misuseErr):
		info.Domain, info.Code = ErrorDomainIterator, ErrorCodeMisuse
	case errors.As(err, &renderErr):
		info.Domain, info.Code = ErrorDomainRender, ErrorCodeRender
	}

	msg := err.Error()
	if len(msg) > errorInfoMessageCap {
		msg = msg[:errorInfoMessageCap]
	}
	info.Message = msg

	return info
}

// Error implements the error interface.
func (ei ErrorInfo) Error() string {
	return fmt.Sprintf("domain %d code %d: %s", ei.Domain, ei.Code, ei.Message)
}
