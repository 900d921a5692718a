// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sandia-minimega/xrpc/internal/wire"
)

func decodeOne(t *testing.T, buf []byte) Element {
	t.Helper()
	var el Element
	cursor := 0
	require.True(t, el.Decode(buf, &cursor), "decode failed for %q", buf)
	require.Equal(t, len(buf), cursor, "decode did not consume the whole element")
	return el
}

func TestElementRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 34, 56, 0, time.UTC)

	cases := []struct {
		name string
		el   Element
	}{
		{"bool-true", NewBool(true)},
		{"bool-false", NewBool(false)},
		{"char", NewChar('q')},
		{"int-positive", NewInt(42)},
		{"int-negative", NewInt(-17)},
		{"double", NewDouble(3.14159)},
		{"time", NewTime(now)},
		{"string-plain", NewString("hello world")},
		{"string-entities", NewString(`<tag> & 'quote' "quote"`)},
		{"binary", NewBinary([]byte{0, 1, 2, 255, 254, 253})},
		{"array", NewArray([]Element{NewInt(1), NewInt(2), NewString("three")})},
		{"struct", NewStruct(map[string]Element{
			"a": NewInt(1),
			"b": NewString("two"),
		})},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			encoded := c.el.Encode()
			got := decodeOne(t, encoded)
			assert.Equal(t, c.el, got, "round trip mismatch: %q", encoded)
		})
	}
}

func TestElementAccessorsRejectWrongType(t *testing.T) {
	el := NewInt(5)

	_, ok := el.String()
	assert.False(t, ok)

	_, ok = el.Bool()
	assert.False(t, ok)

	v, ok := el.Int()
	assert.True(t, ok)
	assert.EqualValues(t, 5, v)
}

func TestStructMembersSortedOnEncode(t *testing.T) {
	s := NewStruct(map[string]Element{
		"zebra": NewInt(1),
		"alpha": NewInt(2),
		"mike":  NewInt(3),
	})

	encoded := string(s.Encode())
	alphaIdx := indexOf(encoded, "<name>alpha</name>")
	mikeIdx := indexOf(encoded, "<name>mike</name>")
	zebraIdx := indexOf(encoded, "<name>zebra</name>")

	require.NotEqual(t, -1, alphaIdx)
	require.NotEqual(t, -1, mikeIdx)
	require.NotEqual(t, -1, zebraIdx)
	assert.Less(t, alphaIdx, mikeIdx)
	assert.Less(t, mikeIdx, zebraIdx)
}

func TestArrayOfStructsRoundTrip(t *testing.T) {
	el := NewArray([]Element{
		NewStruct(map[string]Element{"x": NewInt(1)}),
		NewStruct(map[string]Element{"x": NewInt(2)}),
	})

	got := decodeOne(t, el.Encode())
	assert.Equal(t, el, got)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
