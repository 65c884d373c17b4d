// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stun

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsPunchable(t *testing.T) {
	t.Parallel()

	for _, natType := range []NATType{NATNone, NATFull, NATRestricted, NATPortRestricted, NATSymmetricUDPFirewall} {
		if !IsPunchable(natType) {
			t.Errorf("%s should be punchable", natType)
		}
	}
	for _, natType := range []NATType{NATError, NATUnknown, NATBlocked, NATSymmetric} {
		if IsPunchable(natType) {
			t.Errorf("%s should not be punchable", natType)
		}
	}
}

func TestDetectNATTypeCancelled(t *testing.T) {
	server := newServer(t, silent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	natType, addr, err := DetectNATType(ctx, server)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if natType != NATError || addr != nil {
		t.Errorf("unexpected result %s %v", natType, addr)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled detection did not return promptly")
	}
}

func TestDetectNATTypeUnresolvable(t *testing.T) {
	t.Parallel()

	if _, _, err := DetectNATType(context.Background(), "stun:not a host:x"); err == nil {
		t.Error("expected a resolution error")
	}
}
