// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sandia-minimega/xrpc/internal/wire"
)

func TestRequestRoundTrip(t *testing.T) {
	params := []Element{NewInt(1), NewString("two"), NewBool(true)}
	frame := EncodeRequest(42, "add", params)

	got, err := DecodeRequest(frame)
	require.NoError(t, err)

	assert.EqualValues(t, 42, got.ID)
	assert.Equal(t, "add", got.Proc)
	assert.Equal(t, params, got.Params)
}

func TestResponseRoundTripResults(t *testing.T) {
	results := []Element{NewInt(3)}
	frame := EncodeResponse(42, results, nil)

	got, err := DecodeResponse(frame)
	require.NoError(t, err)

	assert.EqualValues(t, 42, got.ID)
	assert.Nil(t, got.Fault)
	assert.Equal(t, results, got.Results)
}

func TestResponseRoundTripFault(t *testing.T) {
	desc := NewString("procedure not found: bogus")
	frame := EncodeResponse(7, nil, &Fault{Descriptor: &desc})

	got, err := DecodeResponse(frame)
	require.NoError(t, err)

	assert.EqualValues(t, 7, got.ID)
	require.NotNil(t, got.Fault)
	require.NotNil(t, got.Fault.Descriptor)
	s, ok := got.Fault.Descriptor.String()
	require.True(t, ok)
	assert.Equal(t, "procedure not found: bogus", s)
}

func TestResponseRoundTripEmptyFault(t *testing.T) {
	frame := EncodeResponse(7, nil, &Fault{})

	got, err := DecodeResponse(frame)
	require.NoError(t, err)
	require.NotNil(t, got.Fault)
	assert.Nil(t, got.Fault.Descriptor)
}

func TestDecodeRequestRejectsMalformedFrame(t *testing.T) {
	_, err := DecodeRequest([]byte("not xml at all"))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestExtractFramesDrainsAllComplete(t *testing.T) {
	one := EncodeRequest(1, "a", nil)
	two := EncodeRequest(2, "b", nil)

	buf := append(append([]byte{}, one...), two...)
	buf = append(buf, []byte("<XML><id><i4>3</i4></id>")...) // partial third frame

	frames, remainder := ExtractFrames(buf)
	require.Len(t, frames, 2)
	assert.Equal(t, one, frames[0])
	assert.Equal(t, two, frames[1])
	assert.Equal(t, "<XML><id><i4>3</i4></id>", string(remainder))
}

func TestExtractFramesAcrossChunkedReads(t *testing.T) {
	full := EncodeRequest(9, "split", []Element{NewString("payload")})

	mid := len(full) / 2
	frames, remainder := ExtractFrames(full[:mid])
	assert.Empty(t, frames)

	frames, remainder = ExtractFrames(append(remainder, full[mid:]...))
	require.Len(t, frames, 1)
	assert.Equal(t, full, frames[0])
	assert.Empty(t, remainder)
}
