// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package model defines the persistent domain types shared by every
// repograph component: organizations, repositories, files, symbols,
// references, parsing jobs, entry points, and flows.
package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a new 128-bit, lexicographically sortable, timestamp-prefixed
// identifier encoded as a 26-character Crockford base32 string.
func NewID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// IDTime extracts the millisecond timestamp encoded in a NewID value.
// Returns the zero time if id is not a well-formed ULID.
func IDTime(id string) time.Time {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(parsed.Time())
}
