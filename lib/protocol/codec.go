// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// Magic identifies a Buxton control frame.
	Magic uint32 = 0x672

	// HeaderSize is the fixed frame header: magic, total length,
	// message type, msgid, parameter count.
	HeaderSize = 4 + 4 + 4 + 8 + 4

	// MaxMessageSize caps a whole frame, header included. Larger
	// frames are corrupt and the sender is evicted.
	MaxMessageSize = 4096

	// MaxParams caps the parameter count of a single frame.
	MaxParams = 16

	// paramHeaderSize is the per-parameter fixed prefix: data type,
	// label length, value length.
	paramHeaderSize = 4 + 4 + 4

	// minLabelSize is the smallest wire label: one byte plus the
	// trailing NUL.
	minLabelSize = 2

	// minValueSize is the smallest wire value: a single byte (the NUL
	// of an empty string, or a boolean).
	minValueSize = 1

	// minParamSize is the smallest legal serialized parameter.
	minParamSize = paramHeaderSize + minLabelSize + minValueSize
)

// Parameter is one typed, labelled value inside a frame. Request key
// parameters (layer, group, name) are strings carrying a placeholder
// label; the daemon never consults it. Value parameters in Set
// requests and Get/Changed replies carry the label that is (or will
// be) stored alongside the value.
type Parameter struct {
	Label string
	Value Value
}

// StringParam builds a string parameter with the given label.
func StringParam(label, value string) Parameter {
	return Parameter{Label: label, Value: StringValue(value)}
}

// Message is a decoded frame.
type Message struct {
	Type   MessageType
	MsgID  uint64
	Params []Parameter
}

// PeekSize inspects the start of a read buffer and reports the total
// frame length once enough header bytes are present. It returns
// (0, false, nil) while fewer than eight bytes are buffered, and an
// error if the magic is wrong or the declared length is impossible —
// both conditions are unrecoverable for the connection.
func PeekSize(buf []byte) (int, bool, error) {
	if len(buf) < 8 {
		return 0, false, nil
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return 0, false, fmt.Errorf("bad magic 0x%x", magic)
	}
	total := binary.LittleEndian.Uint32(buf[4:8])
	if total < HeaderSize || total > MaxMessageSize {
		return 0, false, fmt.Errorf("frame length %d outside [%d, %d]", total, HeaderSize, MaxMessageSize)
	}
	return int(total), true, nil
}

// Encode serializes a frame. It fails if any parameter is malformed
// (empty or NUL-bearing label, invalid value type, embedded NUL in a
// string value), if there are more than MaxParams parameters, or if
// the total exceeds MaxMessageSize.
func Encode(msgType MessageType, msgid uint64, params []Parameter) ([]byte, error) {
	if msgType < MessageSet || msgType > MessageChanged {
		return nil, fmt.Errorf("invalid message type %d", uint32(msgType))
	}
	if len(params) > MaxParams {
		return nil, fmt.Errorf("%d parameters exceeds maximum %d", len(params), MaxParams)
	}

	total := HeaderSize
	for i, p := range params {
		if p.Label == "" {
			return nil, fmt.Errorf("parameter %d has empty label", i)
		}
		if strings.IndexByte(p.Label, 0) >= 0 {
			return nil, fmt.Errorf("parameter %d label contains embedded NUL", i)
		}
		valueSize, err := p.Value.encodedSize()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		total += paramHeaderSize + len(p.Label) + 1 + valueSize
	}
	if total > MaxMessageSize {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", total, MaxMessageSize)
	}

	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, Magic)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	out = binary.LittleEndian.AppendUint32(out, uint32(msgType))
	out = binary.LittleEndian.AppendUint64(out, msgid)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(params)))

	for _, p := range params {
		valueSize, _ := p.Value.encodedSize()
		out = binary.LittleEndian.AppendUint32(out, uint32(p.Value.Type))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(p.Label)+1))
		out = binary.LittleEndian.AppendUint32(out, uint32(valueSize))
		out = append(out, p.Label...)
		out = append(out, 0)
		out = p.Value.appendPayload(out)
	}
	return out, nil
}

// Decode parses one complete frame. The buffer must hold exactly the
// frame (the caller accumulates to the PeekSize length first). The
// direction selects the legal message-type set: a Status frame from a
// client, or a Set frame from the server, is rejected.
func Decode(buf []byte, direction Direction) (Message, error) {
	if len(buf) < HeaderSize {
		return Message{}, fmt.Errorf("frame truncated at %d bytes, header is %d", len(buf), HeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return Message{}, fmt.Errorf("bad magic 0x%x", magic)
	}
	total := binary.LittleEndian.Uint32(buf[4:8])
	if total > MaxMessageSize {
		return Message{}, fmt.Errorf("frame length %d exceeds maximum %d", total, MaxMessageSize)
	}
	if int(total) != len(buf) {
		return Message{}, fmt.Errorf("frame length %d does not match buffer length %d", total, len(buf))
	}

	msgType := MessageType(binary.LittleEndian.Uint32(buf[8:12]))
	if !msgType.legalFor(direction) {
		return Message{}, fmt.Errorf("message type %s not legal in this direction", msgType)
	}
	msgid := binary.LittleEndian.Uint64(buf[12:20])
	count := binary.LittleEndian.Uint32(buf[20:24])
	if count > MaxParams {
		return Message{}, fmt.Errorf("%d parameters exceeds maximum %d", count, MaxParams)
	}

	params := make([]Parameter, 0, count)
	offset := HeaderSize
	for i := uint32(0); i < count; i++ {
		if len(buf)-offset < minParamSize {
			return Message{}, fmt.Errorf("parameter %d truncated", i)
		}
		dataType := DataType(binary.LittleEndian.Uint32(buf[offset : offset+4]))
		labelLen := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
		valueLen := binary.LittleEndian.Uint32(buf[offset+8 : offset+12])
		offset += paramHeaderSize

		// Both lengths are attacker-controlled; bound them against
		// the remaining buffer before any arithmetic that could wrap.
		if labelLen < minLabelSize || labelLen > uint32(len(buf)-offset) {
			return Message{}, fmt.Errorf("parameter %d label length %d invalid", i, labelLen)
		}
		labelBytes := buf[offset : offset+int(labelLen)]
		offset += int(labelLen)
		if labelBytes[len(labelBytes)-1] != 0 {
			return Message{}, fmt.Errorf("parameter %d label not NUL-terminated", i)
		}
		label := string(labelBytes[:len(labelBytes)-1])
		if strings.IndexByte(label, 0) >= 0 {
			return Message{}, fmt.Errorf("parameter %d label contains embedded NUL", i)
		}

		if valueLen < minValueSize || valueLen > uint32(len(buf)-offset) {
			return Message{}, fmt.Errorf("parameter %d value length %d invalid", i, valueLen)
		}
		value, err := decodeValue(dataType, buf[offset:offset+int(valueLen)])
		if err != nil {
			return Message{}, fmt.Errorf("parameter %d: %w", i, err)
		}
		offset += int(valueLen)

		params = append(params, Parameter{Label: label, Value: value})
	}
	if offset != len(buf) {
		return Message{}, fmt.Errorf("%d trailing bytes after %d parameters", len(buf)-offset, count)
	}

	return Message{Type: msgType, MsgID: msgid, Params: params}, nil
}
