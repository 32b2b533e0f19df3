// Package kerr defines the error taxonomy shared by every driver, bus
// enumerator, and the resource manager.
//
// Drivers never panic and never allocate on the error path; every fallible
// operation returns one of these sentinels (or nil), mirroring the
// original C convention of "0 = ok, negative = error" (spec.md §7).
package kerr

import "errors"

var (
	// ErrConfiguration signals a driver/device mismatch, an invalid BAR,
	// or a rejected feature negotiation. The resource manager treats it
	// as "try the next device," never as a surfaced failure.
	ErrConfiguration = errors.New("configuration error")

	// ErrRingProtocol signals a VirtIO descriptor id out of range or a
	// zero-length completion. Consumed silently by the driver; logged
	// at debug level only.
	ErrRingProtocol = errors.New("ring protocol error")

	// ErrTimeout signals a transmit polling loop exhausted its bounded
	// iteration count. Returned to the caller, never retried internally.
	ErrTimeout = errors.New("timeout")

	// ErrWouldBlock signals receive was called on an empty ring. Not
	// logged; this is an expected, frequent condition under polling.
	ErrWouldBlock = errors.New("would block")

	// ErrResourceExhausted signals the resource pool is full, no
	// descriptor is free, or no device context slot is free.
	ErrResourceExhausted = errors.New("resource exhausted")
)
