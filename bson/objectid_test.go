// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewObjectID(t *testing.T) {
	// Ensure that NewObjectID() doesn't panic.
	NewObjectID()
}

func TestObjectID_Unique(t *testing.T) {
	a := NewObjectID()
	b := NewObjectID()
	require.NotEqual(t, a, b)
}

func TestObjectID_Hex(t *testing.T) {
	id := NewObjectID()
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{24}$`), id.Hex())
	require.Contains(t, id.String(), id.Hex())
}

func TestObjectIDFromHex_RoundTrip(t *testing.T) {
	before := NewObjectID()
	after, err := ObjectIDFromHex(before.Hex())
	require.NoError(t, err)

	require.Equal(t, before, after)
}

func TestObjectIDFromHex_InvalidHex(t *testing.T) {
	_, err := ObjectIDFromHex("this is not a valid hex string!")
	require.Error(t, err)
}

func TestObjectIDFromHex_WrongLength(t *testing.T) {
	_, err := ObjectIDFromHex("deadbeef")
	require.Equal(t, ErrInvalidHex, err)
}

func TestObjectID_Timestamp(t *testing.T) {
	now := time.Now()
	id := NewObjectIDFromTimestamp(now)
	require.Equal(t, now.Unix(), id.Timestamp().Unix())
}

func TestObjectID_IsZero(t *testing.T) {
	require.True(t, NilObjectID.IsZero())
	require.False(t, NewObjectID().IsZero())
}
