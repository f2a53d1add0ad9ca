// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/buxton-foundation/buxton/lib/protocol"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		dataType protocol.DataType
		text     string
		want     protocol.Value
	}{
		{protocol.String, "hello", protocol.StringValue("hello")},
		{protocol.Int32, "-1500", protocol.Int32Value(-1500)},
		{protocol.UInt32, "4000000000", protocol.UInt32Value(4000000000)},
		{protocol.Int64, "-1099511627776", protocol.Int64Value(-1 << 40)},
		{protocol.UInt64, "1152921504606846976", protocol.UInt64Value(1 << 60)},
		{protocol.Float, "3.5", protocol.FloatValue(3.5)},
		{protocol.Double, "-2.25", protocol.DoubleValue(-2.25)},
		{protocol.Boolean, "true", protocol.BoolValue(true)},
		{protocol.Boolean, "0", protocol.BoolValue(false)},
	}
	for _, tc := range cases {
		got, err := parseValue(tc.dataType, tc.text)
		if err != nil {
			t.Errorf("parseValue(%s, %q): %v", tc.dataType, tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseValue(%s, %q) = %+v, want %+v", tc.dataType, tc.text, got, tc.want)
		}
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	cases := []struct {
		dataType protocol.DataType
		text     string
	}{
		{protocol.Int32, "ten"},
		{protocol.Int32, "2147483648"},
		{protocol.UInt32, "-1"},
		{protocol.Boolean, "maybe"},
		{protocol.Double, "1..5"},
	}
	for _, tc := range cases {
		if _, err := parseValue(tc.dataType, tc.text); err == nil {
			t.Errorf("parseValue(%s, %q) succeeded", tc.dataType, tc.text)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCommand()
	want := []string{
		"get-string", "set-string", "get-int32", "set-int32",
		"get-uint32", "set-uint32", "get-int64", "set-int64",
		"get-uint64", "set-uint64", "get-float", "set-float",
		"get-double", "set-double", "get-bool", "set-bool",
		"unset-value", "get-label", "set-label",
		"create-group", "remove-group", "list-keys",
	}
	names := make(map[string]bool)
	for _, sub := range root.Subcommands {
		names[sub.Name] = true
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("command tree lacks %q", name)
		}
	}
	if len(root.Subcommands) != len(want) {
		t.Errorf("command tree has %d subcommands, want %d", len(root.Subcommands), len(want))
	}
}
