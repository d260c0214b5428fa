// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimal128_StringRoundTrip(t *testing.T) {
	testCases := []string{
		"0",
		"-0",
		"1",
		"-1",
		"12345",
		"0.001",
		"1.001",
		"-1.001",
		"123456789.123456789",
		"1E+6000",
		"1E-6000",
		"9.999999999999999999999999999999999E+6144",
	}

	for _, tc := range testCases {
		t.Run(tc, func(t *testing.T) {
			d, err := ParseDecimal128(tc)
			require.NoError(t, err)

			rt, err := ParseDecimal128(d.String())
			require.NoError(t, err)
			require.Equal(t, d, rt)
		})
	}
}

func TestDecimal128_SpecialValues(t *testing.T) {
	nan, err := ParseDecimal128("NaN")
	require.NoError(t, err)
	require.True(t, nan.IsNaN())
	require.Equal(t, "NaN", nan.String())

	inf, err := ParseDecimal128("Infinity")
	require.NoError(t, err)
	require.Equal(t, 1, inf.IsInf())
	require.Equal(t, "Infinity", inf.String())

	negInf, err := ParseDecimal128("-Infinity")
	require.NoError(t, err)
	require.Equal(t, -1, negInf.IsInf())
	require.Equal(t, "-Infinity", negInf.String())
}

func TestParseDecimal128_Invalid(t *testing.T) {
	for _, tc := range []string{"", "abc", "1.2.3", "--1", "1E", "1E+99999"} {
		t.Run(tc, func(t *testing.T) {
			_, err := ParseDecimal128(tc)
			require.Error(t, err)
		})
	}
}

func TestDecimal128_GetBytes(t *testing.T) {
	d := NewDecimal128(0x3040000000000000, 0x0000000000000001)
	h, l := d.GetBytes()
	require.Equal(t, uint64(0x3040000000000000), h)
	require.Equal(t, uint64(0x0000000000000001), l)
	require.Equal(t, "1", d.String())
}
