// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the
// test. Buxton's daemon tests wait on change notifications and
// shutdown completion this way: a missing delivery fails with the
// description after the timeout instead of hanging the suite.
//
//	value := testutil.RequireReceive(t, changes, 5*time.Second, "waiting for change")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, description string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", description)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, description)
	}
	panic("unreachable")
}
