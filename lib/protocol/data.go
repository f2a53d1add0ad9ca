// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DataType identifies the concrete type carried by a Value. The
// numeric tags are part of the wire protocol and must not change.
type DataType uint32

const (
	// String is a UTF-8 string value.
	String DataType = iota + 1
	// Int32 is a signed 32-bit integer.
	Int32
	// UInt32 is an unsigned 32-bit integer.
	UInt32
	// Int64 is a signed 64-bit integer.
	Int64
	// UInt64 is an unsigned 64-bit integer.
	UInt64
	// Float is an IEEE 754 single-precision float.
	Float
	// Double is an IEEE 754 double-precision float.
	Double
	// Boolean is a single-byte true/false value.
	Boolean
)

// String returns the type name used by the CLI subcommands
// (get-string, set-int32, ...).
func (t DataType) String() string {
	switch t {
	case String:
		return "string"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float:
		return "float"
	case Double:
		return "double"
	case Boolean:
		return "bool"
	default:
		return fmt.Sprintf("DataType(%d)", uint32(t))
	}
}

// ParseDataType maps a CLI type name back to its DataType. Returns
// false for unknown names.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "string":
		return String, true
	case "int32":
		return Int32, true
	case "uint32":
		return UInt32, true
	case "int64":
		return Int64, true
	case "uint64":
		return UInt64, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	case "bool":
		return Boolean, true
	default:
		return 0, false
	}
}

// Value is a tagged union over the eight Buxton data types. Exactly
// the field selected by Type is meaningful; the others are zero.
type Value struct {
	Type    DataType
	String  string
	Int32   int32
	UInt32  uint32
	Int64   int64
	UInt64  uint64
	Float   float32
	Double  float64
	Boolean bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Type: String, String: s} }

// Int32Value returns an int32 Value.
func Int32Value(v int32) Value { return Value{Type: Int32, Int32: v} }

// UInt32Value returns a uint32 Value.
func UInt32Value(v uint32) Value { return Value{Type: UInt32, UInt32: v} }

// Int64Value returns an int64 Value.
func Int64Value(v int64) Value { return Value{Type: Int64, Int64: v} }

// UInt64Value returns a uint64 Value.
func UInt64Value(v uint64) Value { return Value{Type: UInt64, UInt64: v} }

// FloatValue returns a single-precision float Value.
func FloatValue(v float32) Value { return Value{Type: Float, Float: v} }

// DoubleValue returns a double-precision float Value.
func DoubleValue(v float64) Value { return Value{Type: Double, Double: v} }

// BoolValue returns a boolean Value.
func BoolValue(v bool) Value { return Value{Type: Boolean, Boolean: v} }

// Format renders the value for human consumption (CLI output, logs).
func (v Value) Format() string {
	switch v.Type {
	case String:
		return v.String
	case Int32:
		return fmt.Sprintf("%d", v.Int32)
	case UInt32:
		return fmt.Sprintf("%d", v.UInt32)
	case Int64:
		return fmt.Sprintf("%d", v.Int64)
	case UInt64:
		return fmt.Sprintf("%d", v.UInt64)
	case Float:
		return fmt.Sprintf("%g", v.Float)
	case Double:
		return fmt.Sprintf("%g", v.Double)
	case Boolean:
		return fmt.Sprintf("%t", v.Boolean)
	default:
		return fmt.Sprintf("<invalid type %d>", uint32(v.Type))
	}
}

// encodedSize returns the number of value bytes the payload occupies
// on the wire. Strings include their trailing NUL.
func (v Value) encodedSize() (int, error) {
	switch v.Type {
	case String:
		if strings.IndexByte(v.String, 0) >= 0 {
			return 0, fmt.Errorf("string value contains embedded NUL")
		}
		return len(v.String) + 1, nil
	case Int32, UInt32, Float:
		return 4, nil
	case Int64, UInt64, Double:
		return 8, nil
	case Boolean:
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid data type %d", uint32(v.Type))
	}
}

// appendPayload appends the wire encoding of the value to dst.
func (v Value) appendPayload(dst []byte) []byte {
	switch v.Type {
	case String:
		dst = append(dst, v.String...)
		return append(dst, 0)
	case Int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Int32))
	case UInt32:
		return binary.LittleEndian.AppendUint32(dst, v.UInt32)
	case Int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.Int64))
	case UInt64:
		return binary.LittleEndian.AppendUint64(dst, v.UInt64)
	case Float:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v.Float))
	case Double:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Double))
	case Boolean:
		if v.Boolean {
			return append(dst, 1)
		}
		return append(dst, 0)
	default:
		return dst
	}
}

// decodeValue parses a value payload of the given type. The payload
// length must match the type's fixed width, or for strings carry a
// trailing NUL and no embedded NUL.
func decodeValue(t DataType, payload []byte) (Value, error) {
	switch t {
	case String:
		if len(payload) < 1 || payload[len(payload)-1] != 0 {
			return Value{}, fmt.Errorf("string value not NUL-terminated")
		}
		s := string(payload[:len(payload)-1])
		if strings.IndexByte(s, 0) >= 0 {
			return Value{}, fmt.Errorf("string value contains embedded NUL")
		}
		return StringValue(s), nil
	case Int32:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("int32 value has %d bytes, want 4", len(payload))
		}
		return Int32Value(int32(binary.LittleEndian.Uint32(payload))), nil
	case UInt32:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("uint32 value has %d bytes, want 4", len(payload))
		}
		return UInt32Value(binary.LittleEndian.Uint32(payload)), nil
	case Int64:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("int64 value has %d bytes, want 8", len(payload))
		}
		return Int64Value(int64(binary.LittleEndian.Uint64(payload))), nil
	case UInt64:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("uint64 value has %d bytes, want 8", len(payload))
		}
		return UInt64Value(binary.LittleEndian.Uint64(payload)), nil
	case Float:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("float value has %d bytes, want 4", len(payload))
		}
		return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(payload))), nil
	case Double:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("double value has %d bytes, want 8", len(payload))
		}
		return DoubleValue(math.Float64frombits(binary.LittleEndian.Uint64(payload))), nil
	case Boolean:
		if len(payload) != 1 {
			return Value{}, fmt.Errorf("bool value has %d bytes, want 1", len(payload))
		}
		switch payload[0] {
		case 0:
			return BoolValue(false), nil
		case 1:
			return BoolValue(true), nil
		default:
			return Value{}, fmt.Errorf("bool value byte is %d, want 0 or 1", payload[0])
		}
	default:
		return Value{}, fmt.Errorf("invalid data type %d", uint32(t))
	}
}
