// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIDIsLexicographicallySortable(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestIDTimeRoundTrips(t *testing.T) {
	before := time.Now().Add(-time.Millisecond)
	id := NewID()
	after := time.Now().Add(time.Millisecond)

	got := IDTime(id)
	assert.True(t, !got.Before(before.Truncate(time.Millisecond)))
	assert.True(t, !got.After(after))
}

func TestIDTimeMalformed(t *testing.T) {
	assert.True(t, IDTime("not-a-ulid").IsZero())
}
