// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// MessageType identifies a control message on the wire. The numeric
// values are protocol constants.
type MessageType uint32

const (
	// MessageSet writes a value: params layer, group, name, value.
	MessageSet MessageType = iota + 1
	// MessageSetLabel replaces a stored label: params layer, group,
	// [name,] label.
	MessageSetLabel
	// MessageCreateGroup materializes a group sentinel: params layer,
	// group.
	MessageCreateGroup
	// MessageRemoveGroup removes a group and all its keys: params
	// layer, group.
	MessageRemoveGroup
	// MessageGet reads a value: params [layer,] group, name. An empty
	// name addresses the group sentinel itself.
	MessageGet
	// MessageUnset deletes a value: params layer, group, name.
	MessageUnset
	// MessageList enumerates a layer's keys: params layer.
	MessageList
	// MessageNotify subscribes to changes: params group, name.
	MessageNotify
	// MessageUnnotify cancels a subscription: params group, name.
	MessageUnnotify
	// MessageStatus is the server's reply to any request. Parameter 0
	// is the int32 status code; Get replies append the value, List
	// replies append one string per key, Unnotify replies append the
	// key name and the uint64 msgid of the removed subscription.
	MessageStatus
	// MessageChanged is an unsolicited change notification. Parameter
	// 0 is the key name; a value parameter follows unless the change
	// was an unset, in which case it is omitted.
	MessageChanged
)

// String returns the protocol name of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageSet:
		return "SET"
	case MessageSetLabel:
		return "SET_LABEL"
	case MessageCreateGroup:
		return "CREATE_GROUP"
	case MessageRemoveGroup:
		return "REMOVE_GROUP"
	case MessageGet:
		return "GET"
	case MessageUnset:
		return "UNSET"
	case MessageList:
		return "LIST"
	case MessageNotify:
		return "NOTIFY"
	case MessageUnnotify:
		return "UNNOTIFY"
	case MessageStatus:
		return "STATUS"
	case MessageChanged:
		return "CHANGED"
	default:
		return fmt.Sprintf("MessageType(%d)", uint32(t))
	}
}

// Direction says which side of the socket produced a message. The
// legal message-type set differs per direction.
type Direction int

const (
	// ClientToServer frames carry requests: Set through Unnotify.
	ClientToServer Direction = iota
	// ServerToClient frames carry Status replies and Changed
	// notifications.
	ServerToClient
)

// legalFor reports whether the message type may travel in the given
// direction.
func (t MessageType) legalFor(direction Direction) bool {
	switch direction {
	case ClientToServer:
		return t >= MessageSet && t <= MessageUnnotify
	case ServerToClient:
		return t == MessageStatus || t == MessageChanged
	default:
		return false
	}
}

// Status is the int32 result code carried as parameter 0 of every
// Status reply. The POSIX-named codes reuse the Linux errno numbers
// so a client can report them with standard tooling; Buxton-specific
// codes start at 0x1000 and cannot collide with errnos.
type Status int32

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = 0
	// StatusPermissionDenied mirrors EPERM: a label check failed or a
	// non-root caller touched a system layer.
	StatusPermissionDenied Status = 1
	// StatusNotFound mirrors ENOENT: missing layer, group, or key.
	StatusNotFound Status = 2
	// StatusExists mirrors EEXIST: the group sentinel already exists.
	StatusExists Status = 17
)

const (
	// StatusFailed is a generic backend or internal failure.
	StatusFailed Status = 0x1000 + iota
	// StatusBadArgs means the request carried the wrong parameter
	// count or parameter types for its message type.
	StatusBadArgs
	// StatusServerDown means the daemon is shutting down.
	StatusServerDown
	// StatusSocketWrite is a client-library write failure.
	StatusSocketWrite
	// StatusSocketRead is a client-library read failure.
	StatusSocketRead
	// StatusOOM is an allocation failure.
	StatusOOM
	// StatusMutexLock is a client-library lock failure.
	StatusMutexLock
	// StatusCallback is a client-library callback dispatch failure.
	StatusCallback
	// StatusMessageCorrupt means the frame failed structural
	// validation; the sender is evicted.
	StatusMessageCorrupt
	// StatusExceededMaxParams means the frame declared more than
	// MaxParams parameters.
	StatusExceededMaxParams
	// StatusInvalidType means a parameter carried an unknown data
	// type tag.
	StatusInvalidType
	// StatusInvalidControlField means the message type was unknown or
	// illegal for its direction.
	StatusInvalidControlField
)

// String returns the protocol name of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusPermissionDenied:
		return "PERMISSION_DENIED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusExists:
		return "EXISTS"
	case StatusFailed:
		return "FAILED"
	case StatusBadArgs:
		return "BAD_ARGS"
	case StatusServerDown:
		return "SERVER_DOWN"
	case StatusSocketWrite:
		return "SOCKET_WRITE"
	case StatusSocketRead:
		return "SOCKET_READ"
	case StatusOOM:
		return "OOM"
	case StatusMutexLock:
		return "MUTEX_LOCK"
	case StatusCallback:
		return "CALLBACK"
	case StatusMessageCorrupt:
		return "MESSAGE_CORRUPT"
	case StatusExceededMaxParams:
		return "EXCEEDED_MAX_PARAMS"
	case StatusInvalidType:
		return "INVALID_TYPE"
	case StatusInvalidControlField:
		return "INVALID_CONTROL_FIELD"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}
