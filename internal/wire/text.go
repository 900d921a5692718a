// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Package wire implements the self-describing element tree and the
// message-frame envelope that xrpc exchanges over the wire: text escaping,
// base64 binary encoding, the Element tagged union, and message framing.
package wire

import "bytes"

// entity table used by EscapeText/UnescapeText, in encode priority order.
var (
	rawEntity = []byte{'<', '>', '&', '\'', '"'}
	xmlEntity = [][]byte{
		[]byte("lt;"),
		[]byte("gt;"),
		[]byte("amp;"),
		[]byte("apos;"),
		[]byte("quot;"),
	}
)

// EscapeText replaces the five reserved characters with their entity form.
func EscapeText(raw []byte) []byte {
	idx := bytes.IndexAny(raw, string(rawEntity))
	if idx < 0 {
		return raw
	}

	out := make([]byte, 0, len(raw)+8)
	out = append(out, raw[:idx]...)

	for _, b := range raw[idx:] {
		if e := entityFor(b); e != nil {
			out = append(out, '&')
			out = append(out, e...)
			continue
		}
		out = append(out, b)
	}
	return out
}

func entityFor(b byte) []byte {
	for i, r := range rawEntity {
		if r == b {
			return xmlEntity[i]
		}
	}
	return nil
}

// UnescapeText reverses EscapeText. An unrecognized "&...;" run is passed
// through literally starting at the '&' and resumes scanning at the next
// octet, matching the reference decoder's tolerant behavior.
func UnescapeText(encoded []byte) []byte {
	amp := bytes.IndexByte(encoded, '&')
	if amp < 0 {
		return encoded
	}

	out := make([]byte, 0, len(encoded))
	out = append(out, encoded[:amp]...)

	for amp < len(encoded) {
		if encoded[amp] == '&' {
			if name, n, ok := matchEntity(encoded[amp+1:]); ok {
				out = append(out, name)
				amp += 1 + n
				continue
			}
		}
		out = append(out, encoded[amp])
		amp++
	}
	return out
}

func matchEntity(rest []byte) (raw byte, n int, ok bool) {
	for i, e := range xmlEntity {
		if bytes.HasPrefix(rest, e) {
			return rawEntity[i], len(e), true
		}
	}
	return 0, 0, false
}

// NextTag returns the next "<...>" run in buf starting at *cursor, verbatim
// including the angle brackets, and advances *cursor past the closing '>'.
// Returns nil if no well-formed tag remains.
func NextTag(buf []byte, cursor *int) []byte {
	if *cursor >= len(buf) {
		return nil
	}
	start := bytes.IndexByte(buf[*cursor:], '<')
	if start < 0 {
		return nil
	}
	start += *cursor
	end := bytes.IndexByte(buf[start:], '>')
	if end < 0 {
		return nil
	}
	end += start
	*cursor = end + 1
	return buf[start : end+1]
}

// PeekTagIs reports whether the next tag at cursor equals expected, without
// consuming it on mismatch. On match, cursor is left unchanged too -- the
// caller advances explicitly with NextTag, matching XmlUtil::nextTagIs.
func PeekTagIs(expected string, buf []byte, cursor int) bool {
	tmp := cursor
	tag := NextTag(buf, &tmp)
	return tag != nil && string(tag) == expected
}

// AdvanceTo consumes tags from *cursor until closeTag is found (inclusive)
// or the buffer is exhausted. A missing close tag is not treated as fatal;
// callers validate structure at a higher level.
func AdvanceTo(buf []byte, cursor *int, closeTag string) {
	for {
		tag := NextTag(buf, cursor)
		if tag == nil || string(tag) == closeTag {
			return
		}
	}
}
