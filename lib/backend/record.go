// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/buxton-foundation/buxton/lib/protocol"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical record always
// produces identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("backend: CBOR encoder initialization failed: " + err.Error())
	}
}

// storedRecord is the on-disk shape of a Record. Each value class has
// its own field so the decoder recovers the exact wire type; a single
// float64 field holds both Float and Double (float32 to float64 is
// lossless both ways).
type storedRecord struct {
	Type    uint32  `cbor:"t"`
	Label   string  `cbor:"l"`
	String  string  `cbor:"s,omitempty"`
	Signed  int64   `cbor:"i,omitempty"`
	Unsign  uint64  `cbor:"u,omitempty"`
	Float   float64 `cbor:"f,omitempty"`
	Boolean bool    `cbor:"b,omitempty"`
}

func encodeRecord(record Record) ([]byte, error) {
	stored := storedRecord{
		Type:  uint32(record.Value.Type),
		Label: record.Label,
	}
	switch record.Value.Type {
	case protocol.String:
		stored.String = record.Value.String
	case protocol.Int32:
		stored.Signed = int64(record.Value.Int32)
	case protocol.UInt32:
		stored.Unsign = uint64(record.Value.UInt32)
	case protocol.Int64:
		stored.Signed = record.Value.Int64
	case protocol.UInt64:
		stored.Unsign = record.Value.UInt64
	case protocol.Float:
		stored.Float = float64(record.Value.Float)
	case protocol.Double:
		stored.Float = record.Value.Double
	case protocol.Boolean:
		stored.Boolean = record.Value.Boolean
	default:
		return nil, fmt.Errorf("invalid data type %d", uint32(record.Value.Type))
	}
	blob, err := encMode.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return blob, nil
}

func decodeRecord(blob []byte) (Record, error) {
	var stored storedRecord
	if err := cbor.Unmarshal(blob, &stored); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	record := Record{Label: stored.Label}
	switch protocol.DataType(stored.Type) {
	case protocol.String:
		record.Value = protocol.StringValue(stored.String)
	case protocol.Int32:
		record.Value = protocol.Int32Value(int32(stored.Signed))
	case protocol.UInt32:
		record.Value = protocol.UInt32Value(uint32(stored.Unsign))
	case protocol.Int64:
		record.Value = protocol.Int64Value(stored.Signed)
	case protocol.UInt64:
		record.Value = protocol.UInt64Value(stored.Unsign)
	case protocol.Float:
		record.Value = protocol.FloatValue(float32(stored.Float))
	case protocol.Double:
		record.Value = protocol.DoubleValue(stored.Float)
	case protocol.Boolean:
		record.Value = protocol.BoolValue(stored.Boolean)
	default:
		return Record{}, fmt.Errorf("stored record has invalid data type %d", stored.Type)
	}
	return record, nil
}
