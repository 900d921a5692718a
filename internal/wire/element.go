// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package wire

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ElementType discriminates the variant held by an Element.
type ElementType int

const (
	TypeNone ElementType = iota
	TypeBool
	TypeChar
	TypeInt
	TypeDouble
	TypeTime
	TypeString
	TypeBinary
	TypeArray
	TypeStruct
)

func (t ElementType) String() string {
	switch t {
	case TypeBool:
		return "boolean"
	case TypeChar:
		return "char"
	case TypeInt:
		return "i4"
	case TypeDouble:
		return "double"
	case TypeTime:
		return "Time.iso8601"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeStruct:
		return "struct"
	default:
		return "none"
	}
}

// timeLayout is the wire format for Time elements: YYYYMMDDThh:mm:ss.
const timeLayout = "20060102T15:04:05"

// Element is the tagged sum type carried in request parameters and
// response results. Exactly one variant is inhabited at a time. Composite
// variants (Array, Struct) own their children; Clone performs a deep copy.
// A zero Element has type TypeNone.
type Element struct {
	typ ElementType

	b     bool
	ch    byte
	i     int32
	d     float64
	t     time.Time
	bytes []byte // backing store for String and Binary

	arr   []Element
	strct map[string]Element
}

func NewBool(v bool) Element      { return Element{typ: TypeBool, b: v} }
func NewChar(v byte) Element      { return Element{typ: TypeChar, ch: v} }
func NewInt(v int32) Element      { return Element{typ: TypeInt, i: v} }
func NewDouble(v float64) Element { return Element{typ: TypeDouble, d: v} }

func NewTime(t time.Time) Element { return Element{typ: TypeTime, t: t.UTC()} }

func NewString(s string) Element {
	return Element{typ: TypeString, bytes: []byte(s)}
}

func NewBinary(b []byte) Element {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Element{typ: TypeBinary, bytes: cp}
}

func NewArray(items []Element) Element {
	cp := make([]Element, len(items))
	copy(cp, items)
	return Element{typ: TypeArray, arr: cp}
}

func NewStruct(members map[string]Element) Element {
	cp := make(map[string]Element, len(members))
	for k, v := range members {
		cp[k] = v
	}
	return Element{typ: TypeStruct, strct: cp}
}

func (e Element) Type() ElementType { return e.typ }
func (e Element) Valid() bool       { return e.typ != TypeNone }

func (e Element) Bool() (bool, bool)     { return e.b, e.typ == TypeBool }
func (e Element) Char() (byte, bool)     { return e.ch, e.typ == TypeChar }
func (e Element) Int() (int32, bool)     { return e.i, e.typ == TypeInt }
func (e Element) Double() (float64, bool) { return e.d, e.typ == TypeDouble }
func (e Element) Time() (time.Time, bool) { return e.t, e.typ == TypeTime }

func (e Element) String() (string, bool) {
	if e.typ != TypeString {
		return "", false
	}
	return string(e.bytes), true
}

func (e Element) Binary() ([]byte, bool) {
	if e.typ != TypeBinary {
		return nil, false
	}
	cp := make([]byte, len(e.bytes))
	copy(cp, e.bytes)
	return cp, true
}

func (e Element) Array() ([]Element, bool) {
	if e.typ != TypeArray {
		return nil, false
	}
	return e.arr, true
}

func (e Element) Struct() (map[string]Element, bool) {
	if e.typ != TypeStruct {
		return nil, false
	}
	return e.strct, true
}

// Clone performs a deep copy; composite variants get new backing storage.
func (e Element) Clone() Element {
	switch e.typ {
	case TypeString, TypeBinary:
		cp := make([]byte, len(e.bytes))
		copy(cp, e.bytes)
		e.bytes = cp
	case TypeArray:
		cp := make([]Element, len(e.arr))
		for i, c := range e.arr {
			cp[i] = c.Clone()
		}
		e.arr = cp
	case TypeStruct:
		cp := make(map[string]Element, len(e.strct))
		for k, v := range e.strct {
			cp[k] = v.Clone()
		}
		e.strct = cp
	}
	return e
}

const (
	elementTag  = "<element>"
	elementETag = "</element>"
	memberTag   = "<member>"
	memberETag  = "</member>"
	nameTag     = "<name>"
	nameETag    = "</name>"
)

// Encode renders the element as its wire form:
// <element><TYPE>payload</TYPE></element>.
func (e Element) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(elementTag)

	typeTag := "<" + e.typ.String() + ">"
	typeETag := "</" + e.typ.String() + ">"

	switch e.typ {
	case TypeBool:
		buf.WriteString(typeTag)
		if e.b {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
		buf.WriteString(typeETag)
	case TypeChar:
		buf.WriteString(typeTag)
		buf.WriteByte(e.ch)
		buf.WriteString(typeETag)
	case TypeInt:
		buf.WriteString(typeTag)
		buf.WriteString(strconv.FormatInt(int64(e.i), 10))
		buf.WriteString(typeETag)
	case TypeDouble:
		buf.WriteString(typeTag)
		buf.WriteString(strconv.FormatFloat(e.d, 'f', 6, 64))
		buf.WriteString(typeETag)
	case TypeTime:
		buf.WriteString(typeTag)
		buf.WriteString(e.t.UTC().Format(timeLayout))
		buf.WriteString(typeETag)
	case TypeString:
		buf.WriteString(typeTag)
		buf.Write(EscapeText(e.bytes))
		buf.WriteString(typeETag)
	case TypeBinary:
		buf.WriteString(typeTag)
		buf.Write(EncodeBinary(e.bytes))
		buf.WriteString(typeETag)
	case TypeArray:
		buf.WriteString(typeTag)
		for _, c := range e.arr {
			buf.Write(c.Encode())
		}
		buf.WriteString(typeETag)
	case TypeStruct:
		buf.WriteString(typeTag)
		names := make([]string, 0, len(e.strct))
		for name := range e.strct {
			names = append(names, name)
		}
		// Member order is not significant on the wire (spec.md); sorting
		// gives a deterministic, testable encoding.
		sort.Strings(names)
		for _, name := range names {
			buf.WriteString(memberTag)
			buf.WriteString(nameTag)
			buf.Write(EscapeText([]byte(name)))
			buf.WriteString(nameETag)
			buf.Write(e.strct[name].Encode())
			buf.WriteString(memberETag)
		}
		buf.WriteString(typeETag)
	default:
		panic(fmt.Sprintf("wire: cannot encode element of type %v", e.typ))
	}

	buf.WriteString(elementETag)
	return buf.Bytes()
}

var tagToType = map[string]ElementType{
	"<boolean>":      TypeBool,
	"<char>":         TypeChar,
	"<i4>":           TypeInt,
	"<double>":       TypeDouble,
	"<Time.iso8601>": TypeTime,
	"<string>":       TypeString,
	"<binary>":       TypeBinary,
	"<array>":        TypeArray,
	"<struct>":       TypeStruct,
}

// Decode reads an "<element>...</element>" run starting at *cursor and
// populates e in place. Returns false on a missing <element> tag, an
// unrecognized discriminator, or a malformed payload; *cursor is left
// where the failure was detected.
func (e *Element) Decode(buf []byte, cursor *int) bool {
	if !PeekTagIs(elementTag, buf, *cursor) {
		return false
	}
	NextTag(buf, cursor) // consume <element>

	discriminator := NextTag(buf, cursor)
	if discriminator == nil {
		return false
	}
	typ, ok := tagToType[string(discriminator)]
	if !ok {
		return false
	}

	var decoded bool
	switch typ {
	case TypeBool:
		decoded = e.decodeBool(buf, cursor)
	case TypeChar:
		decoded = e.decodeChar(buf, cursor)
	case TypeInt:
		decoded = e.decodeInt(buf, cursor)
	case TypeDouble:
		decoded = e.decodeDouble(buf, cursor)
	case TypeTime:
		decoded = e.decodeTime(buf, cursor)
	case TypeString:
		decoded = e.decodeString(buf, cursor)
	case TypeBinary:
		decoded = e.decodeBinary(buf, cursor)
	case TypeArray:
		decoded = e.decodeArray(buf, cursor)
	case TypeStruct:
		decoded = e.decodeStruct(buf, cursor)
	}
	if !decoded {
		return false
	}

	AdvanceTo(buf, cursor, elementETag)
	return true
}

func payloadUpTo(buf []byte, cursor *int, delim byte) ([]byte, bool) {
	end := bytes.IndexByte(buf[*cursor:], delim)
	if end < 0 {
		return nil, false
	}
	end += *cursor
	payload := buf[*cursor:end]
	*cursor = end
	return payload, true
}

func (e *Element) decodeBool(buf []byte, cursor *int) bool {
	if *cursor >= len(buf) {
		return false
	}
	switch buf[*cursor] {
	case '0':
		*e = Element{typ: TypeBool, b: false}
	case '1':
		*e = Element{typ: TypeBool, b: true}
	default:
		return false
	}
	*cursor++
	return true
}

func (e *Element) decodeChar(buf []byte, cursor *int) bool {
	if *cursor >= len(buf) {
		return false
	}
	*e = Element{typ: TypeChar, ch: buf[*cursor]}
	*cursor++
	return true
}

func (e *Element) decodeInt(buf []byte, cursor *int) bool {
	payload, ok := payloadUpTo(buf, cursor, '<')
	if !ok {
		return false
	}
	v, err := strconv.ParseInt(string(payload), 10, 32)
	if err != nil {
		return false
	}
	*e = Element{typ: TypeInt, i: int32(v)}
	return true
}

func (e *Element) decodeDouble(buf []byte, cursor *int) bool {
	payload, ok := payloadUpTo(buf, cursor, '<')
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		return false
	}
	*e = Element{typ: TypeDouble, d: v}
	return true
}

func (e *Element) decodeTime(buf []byte, cursor *int) bool {
	payload, ok := payloadUpTo(buf, cursor, '<')
	if !ok {
		return false
	}
	t, err := time.Parse(timeLayout, string(payload))
	if err != nil {
		return false
	}
	*e = Element{typ: TypeTime, t: t.UTC()}
	return true
}

func (e *Element) decodeString(buf []byte, cursor *int) bool {
	payload, ok := payloadUpTo(buf, cursor, '<')
	if !ok {
		return false
	}
	*e = Element{typ: TypeString, bytes: UnescapeText(payload)}
	return true
}

func (e *Element) decodeBinary(buf []byte, cursor *int) bool {
	payload, ok := payloadUpTo(buf, cursor, '<')
	if !ok {
		return false
	}
	data, err := DecodeBinary(payload)
	if err != nil {
		return false
	}
	*e = Element{typ: TypeBinary, bytes: data}
	return true
}

func (e *Element) decodeArray(buf []byte, cursor *int) bool {
	items := make([]Element, 0, 4)
	for {
		var child Element
		if !child.Decode(buf, cursor) {
			break
		}
		items = append(items, child)
	}
	*e = Element{typ: TypeArray, arr: items}
	return true
}

func (e *Element) decodeStruct(buf []byte, cursor *int) bool {
	members := make(map[string]Element)
	for PeekTagIs(memberTag, buf, *cursor) {
		NextTag(buf, cursor) // consume <member>

		if !PeekTagIs(nameTag, buf, *cursor) {
			return false
		}
		NextTag(buf, cursor) // consume <name>
		name, ok := payloadUpTo(buf, cursor, '<')
		if !ok {
			return false
		}
		AdvanceTo(buf, cursor, nameETag)

		var child Element
		if !child.Decode(buf, cursor) {
			return false
		}

		if tag := NextTag(buf, cursor); tag == nil || string(tag) != memberETag {
			return false
		}

		members[string(UnescapeText(name))] = child
	}
	*e = Element{typ: TypeStruct, strct: members}
	return true
}
