// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// Envelope sentinels, see spec.md §4.4.
const (
	XMLStart = "<XML>"
	XMLEnd   = "</XML>"

	idTag      = "<id>"
	idETag     = "</id>"
	fnameTag   = "<fname>"
	fnameETag  = "</fname>"
	paramsTag  = "<params>"
	paramsETag = "</params>"
	faultTag   = "<fault>"
	faultETag  = "</fault>"
)

// ErrMalformedFrame is the sentinel wrapped by Decode when a frame's
// envelope sentinels are out of order or missing.
var ErrMalformedFrame = errors.New("wire: malformed frame")

// Fault is the response variant signalling failure. Descriptor is optional
// (nil means spec.md's "empty fault").
type Fault struct {
	Descriptor *Element
}

// Message is a request/response envelope (spec.md §3 "Message frame").
// A request carries ID, Proc, and Params. A response carries ID and
// either Results or Fault (mutually exclusive).
type Message struct {
	ID     uint32
	Proc   string // request only
	Params []Element
	Results []Element
	Fault   *Fault
}

// IsRequest reports whether m looks like a request (has a procedure name).
func (m Message) IsRequest() bool { return m.Proc != "" }

// EncodeRequest renders id/fname/params as a full <XML>...</XML> frame.
func EncodeRequest(id uint32, fname string, params []Element) []byte {
	var buf bytes.Buffer
	buf.WriteString(XMLStart)

	buf.WriteString(idTag)
	buf.Write(NewInt(int32(id)).Encode())
	buf.WriteString(idETag)

	buf.WriteString(fnameTag)
	buf.Write(NewString(fname).Encode())
	buf.WriteString(fnameETag)

	buf.WriteString(paramsTag)
	for _, p := range params {
		buf.Write(p.Encode())
	}
	buf.WriteString(paramsETag)

	buf.WriteString(XMLEnd)
	return buf.Bytes()
}

// EncodeResponse renders id plus either results or a fault as a full frame.
func EncodeResponse(id uint32, results []Element, fault *Fault) []byte {
	var buf bytes.Buffer
	buf.WriteString(XMLStart)

	buf.WriteString(idTag)
	buf.Write(NewInt(int32(id)).Encode())
	buf.WriteString(idETag)

	if fault != nil {
		buf.WriteString(faultTag)
		if fault.Descriptor != nil {
			buf.Write(fault.Descriptor.Encode())
		}
		buf.WriteString(faultETag)
	} else {
		buf.WriteString(paramsTag)
		for _, r := range results {
			buf.Write(r.Encode())
		}
		buf.WriteString(paramsETag)
	}

	buf.WriteString(XMLEnd)
	return buf.Bytes()
}

// DecodeRequest parses a complete request frame (as produced by
// EncodeRequest) positionally: XML_START, id, fname, params, XML_END.
func DecodeRequest(frame []byte) (Message, error) {
	var cursor int
	var m Message

	if !PeekTagIs(XMLStart, frame, cursor) {
		return m, errors.Wrap(ErrMalformedFrame, "missing <XML> header")
	}
	NextTag(frame, &cursor)

	tag := NextTag(frame, &cursor)
	if tag == nil || string(tag) != idTag {
		return m, errors.Wrap(ErrMalformedFrame, "missing <id>")
	}
	var idEl Element
	if !idEl.Decode(frame, &cursor) {
		return m, errors.Wrap(ErrMalformedFrame, "malformed <id> payload")
	}
	AdvanceTo(frame, &cursor, idETag)
	id, _ := idEl.Int()
	m.ID = uint32(id)

	tag = NextTag(frame, &cursor)
	if tag == nil || string(tag) != fnameTag {
		return m, errors.Wrap(ErrMalformedFrame, "missing <fname>")
	}
	var fnameEl Element
	if !fnameEl.Decode(frame, &cursor) {
		return m, errors.Wrap(ErrMalformedFrame, "malformed <fname> payload")
	}
	AdvanceTo(frame, &cursor, fnameETag)
	fname, _ := fnameEl.String()
	m.Proc = fname

	tag = NextTag(frame, &cursor)
	if tag == nil || string(tag) != paramsTag {
		return m, errors.Wrap(ErrMalformedFrame, "missing <params>")
	}
	for {
		var el Element
		if !el.Decode(frame, &cursor) {
			break
		}
		m.Params = append(m.Params, el)
	}
	tag = NextTag(frame, &cursor)
	if tag == nil || string(tag) != paramsETag {
		return m, errors.Wrap(ErrMalformedFrame, "missing </params>")
	}

	tag = NextTag(frame, &cursor)
	if tag == nil || string(tag) != XMLEnd {
		return m, errors.Wrap(ErrMalformedFrame, "missing </XML>")
	}

	return m, nil
}

// DecodeResponse parses a complete response frame positionally: XML_START,
// id, (params | fault), XML_END.
func DecodeResponse(frame []byte) (Message, error) {
	var cursor int
	var m Message

	if !PeekTagIs(XMLStart, frame, cursor) {
		return m, errors.Wrap(ErrMalformedFrame, "missing <XML> header")
	}
	NextTag(frame, &cursor)

	tag := NextTag(frame, &cursor)
	if tag == nil || string(tag) != idTag {
		return m, errors.Wrap(ErrMalformedFrame, "missing <id>")
	}
	var idEl Element
	if !idEl.Decode(frame, &cursor) {
		return m, errors.Wrap(ErrMalformedFrame, "malformed <id> payload")
	}
	AdvanceTo(frame, &cursor, idETag)
	id, _ := idEl.Int()
	m.ID = uint32(id)

	tag = NextTag(frame, &cursor)
	if tag == nil {
		return m, errors.Wrap(ErrMalformedFrame, "missing <params> or <fault>")
	}

	switch string(tag) {
	case paramsTag:
		for {
			var el Element
			if !el.Decode(frame, &cursor) {
				break
			}
			m.Results = append(m.Results, el)
		}
		if t := NextTag(frame, &cursor); t == nil || string(t) != paramsETag {
			return m, errors.Wrap(ErrMalformedFrame, "missing </params>")
		}
	case faultTag:
		f := &Fault{}
		var el Element
		if el.Decode(frame, &cursor) {
			f.Descriptor = &el
		}
		AdvanceTo(frame, &cursor, faultETag)
		m.Fault = f
	default:
		return m, errors.Wrap(ErrMalformedFrame, fmt.Sprintf("unexpected tag %q", tag))
	}

	tag = NextTag(frame, &cursor)
	if tag == nil || string(tag) != XMLEnd {
		return m, errors.Wrap(ErrMalformedFrame, "missing </XML>")
	}

	return m, nil
}

// ExtractFrames scans buf for every complete "<XML>...</XML>" run and
// returns them in order along with the unconsumed remainder (a partial
// trailing frame, kept for the next read). It drains *all* complete
// frames present, not just the first (spec.md §9 Open Question 2).
func ExtractFrames(buf []byte) (frames [][]byte, remainder []byte) {
	pos := 0
	for {
		idx := bytes.Index(buf[pos:], []byte(XMLEnd))
		if idx < 0 {
			break
		}
		end := pos + idx + len(XMLEnd)
		frames = append(frames, buf[pos:end])
		pos = end
	}
	return frames, buf[pos:]
}
