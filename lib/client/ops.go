// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/buxton-foundation/buxton/lib/protocol"
)

// Set writes a value into a layer. The value's group must already
// exist there.
func (c *Client) Set(layer, group, name string, value protocol.Value) error {
	params := append(keyParams(layer, group, name), protocol.Parameter{Label: placeholderLabel, Value: value})
	_, err := c.expectOK(protocol.MessageSet, params, nil)
	return err
}

// Get reads a value and its label. An empty layer resolves across all
// layers by priority; an empty name addresses the group sentinel.
func (c *Client) Get(layer, group, name string) (protocol.Value, string, error) {
	var params []protocol.Parameter
	if layer == "" {
		params = keyParams(group, name)
	} else {
		params = keyParams(layer, group, name)
	}
	msg, err := c.expectOK(protocol.MessageGet, params, nil)
	if err != nil {
		return protocol.Value{}, "", err
	}
	if len(msg.Params) < 2 {
		return protocol.Value{}, "", fmt.Errorf("get reply missing value parameter")
	}
	return msg.Params[1].Value, msg.Params[1].Label, nil
}

// GetLabel reads the label of a value, or of the group itself when
// name is empty.
func (c *Client) GetLabel(layer, group, name string) (string, error) {
	_, label, err := c.Get(layer, group, name)
	return label, err
}

// Unset removes a value from a layer.
func (c *Client) Unset(layer, group, name string) error {
	_, err := c.expectOK(protocol.MessageUnset, keyParams(layer, group, name), nil)
	return err
}

// CreateGroup materializes a group in a layer.
func (c *Client) CreateGroup(layer, group string) error {
	_, err := c.expectOK(protocol.MessageCreateGroup, keyParams(layer, group), nil)
	return err
}

// RemoveGroup removes a group and every key under it.
func (c *Client) RemoveGroup(layer, group string) error {
	_, err := c.expectOK(protocol.MessageRemoveGroup, keyParams(layer, group), nil)
	return err
}

// SetLabel replaces the label on a value, or on the group itself when
// name is empty. System layers only; requires root.
func (c *Client) SetLabel(layer, group, name, label string) error {
	var params []protocol.Parameter
	if name == "" {
		params = keyParams(layer, group, label)
	} else {
		params = keyParams(layer, group, name, label)
	}
	_, err := c.expectOK(protocol.MessageSetLabel, params, nil)
	return err
}

// ListKeys enumerates a layer's keys. Group sentinels appear as the
// bare group name, values as group/name.
func (c *Client) ListKeys(layer string) ([]string, error) {
	msg, err := c.expectOK(protocol.MessageList, keyParams(layer), nil)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(msg.Params)-1)
	for _, param := range msg.Params[1:] {
		if param.Value.Type == protocol.String {
			keys = append(keys, param.Value.String)
		}
	}
	return keys, nil
}

// Notify subscribes to changes of (group, name) in any layer. The
// callback fires on the reader goroutine for every subsequent change
// until Unnotify. The subscription is live when Notify returns.
func (c *Client) Notify(group, name string, fn ChangedFunc) error {
	if fn == nil {
		return fmt.Errorf("a change callback is required")
	}
	_, err := c.expectOK(protocol.MessageNotify, keyParams(group, name), fn)
	return err
}

// Unnotify cancels the subscription to (group, name). No further
// notifications for it are delivered once Unnotify returns.
func (c *Client) Unnotify(group, name string) error {
	_, err := c.expectOK(protocol.MessageUnnotify, keyParams(group, name), nil)
	return err
}

// SetString writes a string value.
func (c *Client) SetString(layer, group, name, value string) error {
	return c.Set(layer, group, name, protocol.StringValue(value))
}

// SetInt32 writes an int32 value.
func (c *Client) SetInt32(layer, group, name string, value int32) error {
	return c.Set(layer, group, name, protocol.Int32Value(value))
}

// SetUInt32 writes a uint32 value.
func (c *Client) SetUInt32(layer, group, name string, value uint32) error {
	return c.Set(layer, group, name, protocol.UInt32Value(value))
}

// SetInt64 writes an int64 value.
func (c *Client) SetInt64(layer, group, name string, value int64) error {
	return c.Set(layer, group, name, protocol.Int64Value(value))
}

// SetUInt64 writes a uint64 value.
func (c *Client) SetUInt64(layer, group, name string, value uint64) error {
	return c.Set(layer, group, name, protocol.UInt64Value(value))
}

// SetFloat writes a single-precision float value.
func (c *Client) SetFloat(layer, group, name string, value float32) error {
	return c.Set(layer, group, name, protocol.FloatValue(value))
}

// SetDouble writes a double-precision float value.
func (c *Client) SetDouble(layer, group, name string, value float64) error {
	return c.Set(layer, group, name, protocol.DoubleValue(value))
}

// SetBool writes a boolean value.
func (c *Client) SetBool(layer, group, name string, value bool) error {
	return c.Set(layer, group, name, protocol.BoolValue(value))
}

// typedGet fetches a value and checks its wire type.
func (c *Client) typedGet(layer, group, name string, want protocol.DataType) (protocol.Value, error) {
	value, _, err := c.Get(layer, group, name)
	if err != nil {
		return protocol.Value{}, err
	}
	if value.Type != want {
		return protocol.Value{}, fmt.Errorf("%s/%s is %s, not %s", group, name, value.Type, want)
	}
	return value, nil
}

// GetString reads a string value.
func (c *Client) GetString(layer, group, name string) (string, error) {
	value, err := c.typedGet(layer, group, name, protocol.String)
	return value.String, err
}

// GetInt32 reads an int32 value.
func (c *Client) GetInt32(layer, group, name string) (int32, error) {
	value, err := c.typedGet(layer, group, name, protocol.Int32)
	return value.Int32, err
}

// GetUInt32 reads a uint32 value.
func (c *Client) GetUInt32(layer, group, name string) (uint32, error) {
	value, err := c.typedGet(layer, group, name, protocol.UInt32)
	return value.UInt32, err
}

// GetInt64 reads an int64 value.
func (c *Client) GetInt64(layer, group, name string) (int64, error) {
	value, err := c.typedGet(layer, group, name, protocol.Int64)
	return value.Int64, err
}

// GetUInt64 reads a uint64 value.
func (c *Client) GetUInt64(layer, group, name string) (uint64, error) {
	value, err := c.typedGet(layer, group, name, protocol.UInt64)
	return value.UInt64, err
}

// GetFloat reads a single-precision float value.
func (c *Client) GetFloat(layer, group, name string) (float32, error) {
	value, err := c.typedGet(layer, group, name, protocol.Float)
	return value.Float, err
}

// GetDouble reads a double-precision float value.
func (c *Client) GetDouble(layer, group, name string) (float64, error) {
	value, err := c.typedGet(layer, group, name, protocol.Double)
	return value.Double, err
}

// GetBool reads a boolean value.
func (c *Client) GetBool(layer, group, name string) (bool, error) {
	value, err := c.typedGet(layer, group, name, protocol.Boolean)
	return value.Boolean, err
}
