// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package nat

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion is returned for gateways that expose neither
	// IGDv1 nor IGDv2.
	ErrUnsupportedVersion = errors.New("unsupported gateway device version")
	// ErrCancelled is returned when the caller cancelled the operation.
	ErrCancelled = errors.New("operation cancelled")
)

// A TransportError is a connection level failure of a datagram or HTTP
// exchange, including timeouts.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// A ProtocolError is an unsuccessful status or a malformed response.
type ProtocolError struct {
	Action string
	Status int
	// Code is the UPnP error code from the SOAP fault, or zero.
	Code int
	Body string
	Err  error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: malformed response: %v", e.Action, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s: status %d, UPnP error %d", e.Action, e.Status, e.Code)
	default:
		return fmt.Sprintf("%s: status %d", e.Action, e.Status)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// A DiscoveryError is returned when a discovered device could not be
// described at all.
type DiscoveryError struct {
	USN string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("describing device %s: %v", e.USN, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// cancelled wraps the context error as ErrCancelled.
func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
