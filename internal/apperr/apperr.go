// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package apperr provides structured error handling for repograph's core
// and CLI: a Kind taxonomy in place of bare exit codes, a Message/Cause/Fix
// shape, and colored or JSON terminal rendering.
package apperr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies an Error: input validation, not-found, conflict,
// infrastructure failure, or LLM failure.
type Kind string

const (
	KindInputInvalid Kind = "input_invalid"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInfraFailure Kind = "infra_failure"
	KindLLMFailure   Kind = "llm_failure"
	KindInternal     Kind = "internal"
)

// ExitCode maps a Kind to a process exit code, following Unix exit-code
// convention.
func (k Kind) ExitCode() int {
	switch k {
	case KindInputInvalid:
		return 4
	case KindNotFound:
		return 6
	case KindConflict:
		return 1
	case KindInfraFailure:
		return 2
	case KindLLMFailure:
		return 3
	default:
		return 10
	}
}

// StatusCode maps a Kind to the HTTP status the API surface reports it as.
func (k Kind) StatusCode() int {
	switch k {
	case KindInputInvalid:
		return 400
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindInfraFailure, KindInternal:
		return 500
	case KindLLMFailure:
		return 502
	default:
		return 500
	}
}

// Error is a structured, user-facing error: what went wrong (Message), why
// (Cause), how to fix it (Fix), and which Kind it is.
type Error struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg, cause, fix string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause, Fix: fix, Err: err}
}

func InputInvalid(msg, cause, fix string) *Error {
	return New(KindInputInvalid, msg, cause, fix, nil)
}

func NotFound(msg, cause string) *Error {
	return New(KindNotFound, msg, cause, "", nil)
}

func Conflict(msg, cause string) *Error {
	return New(KindConflict, msg, cause, "", nil)
}

func InfraFailure(msg, cause string, err error) *Error {
	return New(KindInfraFailure, msg, cause, "", err)
}

func LLMFailure(msg, cause string, err error) *Error {
	return New(KindLLMFailure, msg, cause, "", err)
}

func Internal(msg string, err error) *Error {
	return New(KindInternal, msg, "", "this is a bug, please report it", err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for terminal display, colored unless noColor is
// set or NO_COLOR is present in the environment.
func (e *Error) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")
	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON is the machine-readable rendering of an Error.
type JSON struct {
	Kind    Kind   `json:"kind"`
	Error   string `json:"error"`
	Cause   string `json:"cause,omitempty"`
	Fix     string `json:"fix,omitempty"`
	ExitCode int   `json:"exit_code"`
}

func (e *Error) ToJSON() JSON {
	return JSON{Kind: e.Kind, Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.Kind.ExitCode()}
}

// Fatal prints err and exits the process with its mapped exit code.
func Fatal(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	if ae, ok := err.(*Error); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ae.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ae.Format(false))
		}
		os.Exit(ae.Kind.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(10)
}
