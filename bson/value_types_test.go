// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestD_MapAndLookup(t *testing.T) {
	d := D{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: "two"},
		{Key: "a", Value: int32(3)},
	}

	m := d.Map()
	assert.Equal(t, int32(1), m["a"], "Map keeps the first occurrence of a duplicate key")
	assert.Equal(t, "two", m["b"])

	v, ok := d.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = d.Lookup("missing")
	assert.False(t, ok)
}

func TestDateTime_TimeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	dt := NewDateTimeFromTime(now)
	assert.True(t, dt.Time().Equal(now))

	epoch := DateTime(0)
	assert.Equal(t, time.Unix(0, 0).UTC(), epoch.Time())

	before := DateTime(-1)
	assert.Equal(t, int64(-1), before.Time().UnixNano()/1e6)
}

func TestNewDateTimeFromTime_TruncatesToMilliseconds(t *testing.T) {
	base := time.Date(2020, 1, 2, 3, 4, 5, 123_456_789, time.UTC)
	dt := NewDateTimeFromTime(base)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 123_000_000, time.UTC), dt.Time())
}
