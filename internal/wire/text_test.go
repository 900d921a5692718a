// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/sandia-minimega/xrpc/internal/wire"
)

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		`<b>bold</b> & "quoted" & 'quoted'`,
		"multi\nline\ttext",
	}

	for _, s := range cases {
		escaped := EscapeText([]byte(s))
		assert.NotContains(t, string(escaped), "<")
		got := UnescapeText(escaped)
		assert.Equal(t, s, string(got))
	}
}

func TestEscapeTextEntities(t *testing.T) {
	got := string(EscapeText([]byte(`<>&'"`)))
	assert.Equal(t, "&lt;&gt;&amp;&apos;&quot;", got)
}

func TestNextTagAndAdvanceTo(t *testing.T) {
	buf := []byte("<id><i4>7</i4></id>REST")
	cursor := 0

	tag := NextTag(buf, &cursor)
	assert.Equal(t, "<id>", string(tag))

	assert.True(t, PeekTagIs("<i4>", buf, cursor))

	AdvanceTo(buf, &cursor, "</id>")
	assert.Equal(t, "REST", string(buf[cursor:]))
}
