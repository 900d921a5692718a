// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package cmd

import (
	"strconv"

	"github.com/sandia-minimega/xrpc/internal/wire"
)

// parseArg infers a wire.Element type from a command-line argument's
// shape: "true"/"false" become boolean, a valid integer becomes i4, a
// valid float becomes double, anything else is carried as a string.
func parseArg(s string) wire.Element {
	if s == "true" {
		return wire.NewBool(true)
	}
	if s == "false" {
		return wire.NewBool(false)
	}
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return wire.NewInt(int32(v))
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return wire.NewDouble(v)
	}
	return wire.NewString(s)
}

// formatElement renders an element as a single display string for
// table output.
func formatElement(e wire.Element) string {
	switch e.Type() {
	case wire.TypeBool:
		v, _ := e.Bool()
		if v {
			return "true"
		}
		return "false"
	case wire.TypeChar:
		v, _ := e.Char()
		return string(rune(v))
	case wire.TypeInt:
		v, _ := e.Int()
		return strconv.FormatInt(int64(v), 10)
	case wire.TypeDouble:
		v, _ := e.Double()
		return strconv.FormatFloat(v, 'f', -1, 64)
	case wire.TypeTime:
		v, _ := e.Time()
		return v.Format("2006-01-02T15:04:05Z07:00")
	case wire.TypeString:
		v, _ := e.String()
		return v
	case wire.TypeBinary:
		v, _ := e.Binary()
		return strconv.Itoa(len(v)) + " bytes"
	case wire.TypeArray:
		v, _ := e.Array()
		return strconv.Itoa(len(v)) + "-element array"
	case wire.TypeStruct:
		v, _ := e.Struct()
		return strconv.Itoa(len(v)) + "-member struct"
	default:
		return ""
	}
}
