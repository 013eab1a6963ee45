// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoffGrowsAndCaps(t *testing.T) {
	backoff := 1.0
	backoff = nextBackoff(backoff)
	assert.InDelta(t, 1.5, backoff, 0.0001)

	backoff = 20
	assert.Equal(t, 10.0, nextBackoff(backoff))
}

func TestPollWaitScalesWithBackoffAndCaps(t *testing.T) {
	assert.Equal(t, time.Second, pollWait(1.0, 1.0))
	assert.Equal(t, 2*time.Second, pollWait(1.0, 2.0))
	assert.Equal(t, 10*time.Second, pollWait(1.0, 50.0))
}

func TestNewAppliesDefaults(t *testing.T) {
	p := New(nil, nil, Config{}, nil)
	assert.Equal(t, 4, p.cfg.WorkerCount)
	assert.Equal(t, 1.0, p.cfg.JobPollIntervalSeconds)
	assert.Equal(t, "repograph", p.cfg.InstancePrefix)
	assert.NotNil(t, p.logger)
}
