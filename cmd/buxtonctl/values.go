// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/buxton-foundation/buxton/lib/protocol"
)

// parseValue converts a command-line argument into a typed value.
func parseValue(dataType protocol.DataType, text string) (protocol.Value, error) {
	switch dataType {
	case protocol.String:
		return protocol.StringValue(text), nil
	case protocol.Int32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not an int32", text)
		}
		return protocol.Int32Value(int32(v)), nil
	case protocol.UInt32:
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not a uint32", text)
		}
		return protocol.UInt32Value(uint32(v)), nil
	case protocol.Int64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not an int64", text)
		}
		return protocol.Int64Value(v), nil
	case protocol.UInt64:
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not a uint64", text)
		}
		return protocol.UInt64Value(v), nil
	case protocol.Float:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not a float", text)
		}
		return protocol.FloatValue(float32(v)), nil
	case protocol.Double:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not a double", text)
		}
		return protocol.DoubleValue(v), nil
	case protocol.Boolean:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return protocol.Value{}, fmt.Errorf("%q is not a bool", text)
		}
		return protocol.BoolValue(v), nil
	default:
		return protocol.Value{}, fmt.Errorf("invalid data type %d", uint32(dataType))
	}
}
