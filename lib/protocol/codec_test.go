// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package protocol_test

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/buxton-foundation/buxton/lib/protocol"
)

// allTypeParams is one parameter of every data type, each with a
// distinct label.
func allTypeParams() []protocol.Parameter {
	return []protocol.Parameter{
		{Label: "_", Value: protocol.StringValue("hello")},
		{Label: "_", Value: protocol.StringValue("")},
		{Label: "system", Value: protocol.Int32Value(-1500)},
		{Label: "system", Value: protocol.UInt32Value(4000000000)},
		{Label: "net", Value: protocol.Int64Value(-1 << 40)},
		{Label: "net", Value: protocol.UInt64Value(1 << 60)},
		{Label: "app", Value: protocol.FloatValue(3.5)},
		{Label: "app", Value: protocol.DoubleValue(-2.25)},
		{Label: "ui", Value: protocol.BoolValue(true)},
		{Label: "ui", Value: protocol.BoolValue(false)},
	}
}

func TestRoundTripAllTypes(t *testing.T) {
	params := allTypeParams()
	frame, err := protocol.Encode(protocol.MessageSet, 42, params)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	size, ok, err := protocol.PeekSize(frame)
	if err != nil || !ok {
		t.Fatalf("PeekSize: ok=%v err=%v", ok, err)
	}
	if size != len(frame) {
		t.Fatalf("PeekSize = %d, want %d", size, len(frame))
	}

	msg, err := protocol.Decode(frame, protocol.ClientToServer)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != protocol.MessageSet {
		t.Errorf("Type = %v, want SET", msg.Type)
	}
	if msg.MsgID != 42 {
		t.Errorf("MsgID = %d, want 42", msg.MsgID)
	}
	if len(msg.Params) != len(params) {
		t.Fatalf("param count = %d, want %d", len(msg.Params), len(params))
	}
	for i, p := range msg.Params {
		if p.Label != params[i].Label {
			t.Errorf("param %d label = %q, want %q", i, p.Label, params[i].Label)
		}
		if p.Value != params[i].Value {
			t.Errorf("param %d value = %+v, want %+v", i, p.Value, params[i].Value)
		}
	}
}

func TestRoundTripServerDirection(t *testing.T) {
	params := []protocol.Parameter{
		{Label: "_", Value: protocol.Int32Value(int32(protocol.StatusOK))},
		{Label: "_", Value: protocol.Int32Value(9000)},
	}
	frame, err := protocol.Encode(protocol.MessageStatus, 7, params)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := protocol.Decode(frame, protocol.ServerToClient)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != protocol.MessageStatus || msg.MsgID != 7 {
		t.Errorf("got %v msgid %d, want STATUS msgid 7", msg.Type, msg.MsgID)
	}
}

func TestDirectionEnforcement(t *testing.T) {
	request, err := protocol.Encode(protocol.MessageGet, 1, []protocol.Parameter{
		protocol.StringParam("_", "group"),
		protocol.StringParam("_", "name"),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := protocol.Decode(request, protocol.ServerToClient); err == nil {
		t.Error("GET decoded as a server-to-client frame")
	}

	reply, err := protocol.Encode(protocol.MessageStatus, 1, []protocol.Parameter{
		{Label: "_", Value: protocol.Int32Value(0)},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := protocol.Decode(reply, protocol.ClientToServer); err == nil {
		t.Error("STATUS decoded as a client-to-server frame")
	}
}

func TestEncodeRejectsMalformedParams(t *testing.T) {
	cases := []struct {
		name   string
		params []protocol.Parameter
	}{
		{"empty label", []protocol.Parameter{{Label: "", Value: protocol.StringValue("x")}}},
		{"NUL in label", []protocol.Parameter{{Label: "a\x00b", Value: protocol.StringValue("x")}}},
		{"NUL in string value", []protocol.Parameter{{Label: "_", Value: protocol.StringValue("a\x00b")}}},
		{"invalid type", []protocol.Parameter{{Label: "_", Value: protocol.Value{Type: 99}}}},
		{"too many params", make([]protocol.Parameter, protocol.MaxParams+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.name == "too many params" {
				for i := range tc.params {
					tc.params[i] = protocol.StringParam("_", "x")
				}
			}
			if _, err := protocol.Encode(protocol.MessageSet, 1, tc.params); err == nil {
				t.Errorf("Encode accepted %s", tc.name)
			}
		})
	}
}

func TestEncodeRejectsOversizeFrame(t *testing.T) {
	big := strings.Repeat("v", protocol.MaxMessageSize)
	_, err := protocol.Encode(protocol.MessageSet, 1, []protocol.Parameter{
		protocol.StringParam("_", big),
	})
	if err == nil {
		t.Fatal("Encode accepted an oversize frame")
	}
}

func TestPeekSize(t *testing.T) {
	frame, err := protocol.Encode(protocol.MessageList, 3, []protocol.Parameter{
		protocol.StringParam("_", "base"),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Under eight bytes: not enough header yet, not an error.
	for n := 0; n < 8; n++ {
		size, ok, err := protocol.PeekSize(frame[:n])
		if err != nil || ok || size != 0 {
			t.Errorf("PeekSize(%d bytes) = (%d, %v, %v), want (0, false, nil)", n, size, ok, err)
		}
	}

	// Bad magic fails immediately.
	bad := bytes.Clone(frame)
	binary.LittleEndian.PutUint32(bad[0:4], 0xdead)
	if _, _, err := protocol.PeekSize(bad); err == nil {
		t.Error("PeekSize accepted bad magic")
	}

	// Oversize declared length fails immediately.
	bad = bytes.Clone(frame)
	binary.LittleEndian.PutUint32(bad[4:8], protocol.MaxMessageSize+1)
	if _, _, err := protocol.PeekSize(bad); err == nil {
		t.Error("PeekSize accepted oversize length")
	}
}

// TestDecodeRejectsCorruptFrames mutates a valid frame in every
// structurally interesting way and checks that Decode refuses each
// one without panicking.
func TestDecodeRejectsCorruptFrames(t *testing.T) {
	frame, err := protocol.Encode(protocol.MessageSet, 9, allTypeParams())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	mutate := func(f func(b []byte)) []byte {
		b := bytes.Clone(frame)
		f(b)
		return b
	}

	cases := []struct {
		name string
		buf  []byte
	}{
		{"bad magic", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[0:4], 1) })},
		{"short length", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], protocol.HeaderSize) })},
		{"long length", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], uint32(len(frame)+1)) })},
		{"unknown message type", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[8:12], 200) })},
		{"param count overflow", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[20:24], protocol.MaxParams+1) })},
		{"param count beyond data", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[20:24], 12) })},
		{"label length overflow", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[protocol.HeaderSize+4:], 0xffffffff) })},
		{"value length overflow", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[protocol.HeaderSize+8:], 0xfffffff0) })},
		{"zero label length", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[protocol.HeaderSize+4:], 0) })},
		{"param type invalid", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[protocol.HeaderSize:], 77) })},
		{"truncated", frame[:len(frame)-1]},
		{"empty", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := protocol.Decode(tc.buf, protocol.ClientToServer); err == nil {
				t.Errorf("Decode accepted %s", tc.name)
			}
		})
	}
}

func TestDataTypeNames(t *testing.T) {
	names := []string{"string", "int32", "uint32", "int64", "uint64", "float", "double", "bool"}
	for _, name := range names {
		dt, ok := protocol.ParseDataType(name)
		if !ok {
			t.Fatalf("ParseDataType(%q) not recognized", name)
		}
		if dt.String() != name {
			t.Errorf("DataType round trip: %q -> %v -> %q", name, dt, dt.String())
		}
	}
	if _, ok := protocol.ParseDataType("int"); ok {
		t.Error("ParseDataType accepted unknown name")
	}
}

func TestStatusNames(t *testing.T) {
	cases := map[protocol.Status]string{
		protocol.StatusOK:                  "OK",
		protocol.StatusPermissionDenied:    "PERMISSION_DENIED",
		protocol.StatusNotFound:            "NOT_FOUND",
		protocol.StatusExists:              "EXISTS",
		protocol.StatusMessageCorrupt:      "MESSAGE_CORRUPT",
		protocol.StatusExceededMaxParams:   "EXCEEDED_MAX_PARAMS",
		protocol.StatusInvalidControlField: "INVALID_CONTROL_FIELD",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int32(status), got, want)
		}
	}
}
