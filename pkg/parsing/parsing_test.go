// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashStableAcrossCalls(t *testing.T) {
	a := contentHash([]byte("package main\n"))
	b := contentHash([]byte("package main\n"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded sha256
}

func TestContentHashDiffersOnChange(t *testing.T) {
	a := contentHash([]byte("package main\n"))
	b := contentHash([]byte("package other\n"))
	assert.NotEqual(t, a, b)
}

func TestContentHashEmptyInput(t *testing.T) {
	a := contentHash([]byte(""))
	b := contentHash(nil)
	assert.Equal(t, a, b)
}
