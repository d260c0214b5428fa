// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorInfo_Classification(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantDomain uint32
		wantCode   uint32
	}{
		{"nil", nil, 0, 0},
		{"parse", newParseError(4, "a", "truncated"), ErrorDomainParse, ErrorCodeMalformed},
		{"unsupported type", UnsupportedTypeError{Tag: 0x7E}, ErrorDomainParse, ErrorCodeUnsupportedType},
		{"key not found", KeyNotFoundError{Key: "a"}, ErrorDomainLookup, ErrorCodeKeyNotFound},
		{"append", AppendError{Key: "a", Reason: "document is finalized"}, ErrorDomainAppend, ErrorCodeReadOnly},
		{"iterator misuse", IteratorMisuseError{Method: "Int32", State: "before-first"}, ErrorDomainIterator, ErrorCodeMisuse},
		{"render", RenderError{Err: newParseError(0, "", "bad")}, ErrorDomainRender, ErrorCodeRender},
		{"unclassified", errors.New("boom"), ErrorDomainUnknown, ErrorCodeUnknown},
		{"wrapped parse", errors.Wrap(newParseError(4, "a", "truncated"), "outer"), ErrorDomainParse, ErrorCodeMalformed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := NewErrorInfo(tc.err)
			assert.Equal(t, tc.wantDomain, info.Domain)
			assert.Equal(t, tc.wantCode, info.Code)
			if tc.err != nil {
				assert.Equal(t, tc.err.Error(), info.Message)
			} else {
				assert.Empty(t, info.Message)
			}
		})
	}
}

func TestNewErrorInfo_MessageTruncation(t *testing.T) {
	long := strings.Repeat("x", errorInfoMessageCap*2)
	info := NewErrorInfo(errors.New(long))

	require.Len(t, info.Message, errorInfoMessageCap)
	assert.Equal(t, long[:errorInfoMessageCap], info.Message)
}

func TestParseError_Error(t *testing.T) {
	withKey := newParseError(12, "name", "string length overruns buffer")
	assert.Contains(t, withKey.Error(), "offset 12")
	assert.Contains(t, withKey.Error(), `"name"`)

	noKey := newParseError(0, "", "buffer too small")
	assert.NotContains(t, noKey.Error(), "key")
}

func TestRenderError_Unwrap(t *testing.T) {
	inner := newParseError(3, "a", "bad")
	err := RenderError{Err: inner}

	var pe ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Offset)
}
