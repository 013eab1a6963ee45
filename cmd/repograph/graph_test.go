// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampGraphDepth(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: -1, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 5, want: 5},
		{in: 10, want: 10},
		{in: 11, want: 10},
		{in: 1000, want: 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, clampGraphDepth(c.in))
	}
}
