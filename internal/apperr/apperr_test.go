// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindExitCode(t *testing.T) {
	assert.Equal(t, 4, KindInputInvalid.ExitCode())
	assert.Equal(t, 6, KindNotFound.ExitCode())
	assert.Equal(t, 1, KindConflict.ExitCode())
	assert.Equal(t, 2, KindInfraFailure.ExitCode())
	assert.Equal(t, 3, KindLLMFailure.ExitCode())
	assert.Equal(t, 10, KindInternal.ExitCode())
}

func TestKindStatusCode(t *testing.T) {
	assert.Equal(t, 400, KindInputInvalid.StatusCode())
	assert.Equal(t, 404, KindNotFound.StatusCode())
	assert.Equal(t, 409, KindConflict.StatusCode())
	assert.Equal(t, 500, KindInfraFailure.StatusCode())
	assert.Equal(t, 500, KindInternal.StatusCode())
	assert.Equal(t, 502, KindLLMFailure.StatusCode())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := InfraFailure("failed to connect", "db", cause)
	assert.ErrorIs(t, e, cause)
}

func TestErrorMessageWithoutCause(t *testing.T) {
	e := NotFound("organization not found", "org-123")
	assert.Equal(t, "organization not found", e.Error())
}

func TestErrorMessageWithCause(t *testing.T) {
	e := InfraFailure("failed to connect", "db", errors.New("boom"))
	assert.Contains(t, e.Error(), "failed to connect")
	assert.Contains(t, e.Error(), "boom")
}

func TestToJSONCarriesExitCode(t *testing.T) {
	e := InputInvalid("bad input", "cause", "fix it")
	j := e.ToJSON()
	assert.Equal(t, KindInputInvalid, j.Kind)
	assert.Equal(t, 4, j.ExitCode)
	assert.Equal(t, "bad input", j.Error)
	assert.Equal(t, "fix it", j.Fix)
}

func TestFormatIncludesCauseAndFix(t *testing.T) {
	e := InputInvalid("bad input", "missing flag", "pass --repo")
	out := e.Format(true)
	assert.Contains(t, out, "bad input")
	assert.Contains(t, out, "missing flag")
	assert.Contains(t, out, "pass --repo")
}

func TestFormatOmitsEmptyCauseAndFix(t *testing.T) {
	e := NotFound("repository not found", "")
	out := e.Format(true)
	assert.NotContains(t, out, "Cause:")
	assert.NotContains(t, out, "Fix:")
}
