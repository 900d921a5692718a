// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire

import (
	"bytes"
	"encoding/base64"
)

// lineWidth is the number of encoded characters between inserted line
// breaks, matching the reference codec's periodic CRLF wrapping.
const lineWidth = 76

// EncodeBinary renders raw octets as standard base64 text with a CRLF
// inserted every lineWidth characters.
func EncodeBinary(raw []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(raw)

	var out bytes.Buffer
	out.Grow(len(enc) + len(enc)/lineWidth*2)

	for len(enc) > lineWidth {
		out.WriteString(enc[:lineWidth])
		out.WriteString("\r\n")
		enc = enc[lineWidth:]
	}
	out.WriteString(enc)
	return out.Bytes()
}

// DecodeBinary reverses EncodeBinary, skipping whitespace. Empty input
// decodes to an empty (non-nil) slice, never an error.
func DecodeBinary(encoded []byte) ([]byte, error) {
	stripped := make([]byte, 0, len(encoded))
	for _, b := range encoded {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		stripped = append(stripped, b)
	}
	if len(stripped) == 0 {
		return []byte{}, nil
	}

	out := make([]byte, base64.StdEncoding.DecodedLen(len(stripped)))
	n, err := base64.StdEncoding.Decode(out, stripped)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
