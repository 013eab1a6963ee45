// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryParserFor(t *testing.T) {
	r := NewRegistry()
	py := NewPythonParser()
	r.Register(py, ".py")

	p, ok := r.ParserFor("service/handlers.py")
	require.True(t, ok)
	assert.Equal(t, py, p)

	_, ok = r.ParserFor("service/handlers.rb")
	assert.False(t, ok)
}

func TestRegistryParserForIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPythonParser(), ".py")

	_, ok := r.ParserFor("SCRIPT.PY")
	assert.True(t, ok)
}

func TestRegistryParserForNoExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPythonParser(), ".py")

	_, ok := r.ParserFor("Makefile")
	assert.False(t, ok)
}

func TestNewDefaultRegistryCoversDocumentedExtensions(t *testing.T) {
	r := NewDefaultRegistry()
	for _, ext := range []string{".py", ".java", ".kt", ".kts", ".js", ".mjs", ".cjs", ".rs"} {
		_, ok := r.ParserFor("file" + ext)
		assert.Truef(t, ok, "expected a parser registered for %s", ext)
	}
}

func TestRegistryExtensions(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPythonParser(), ".py")
	r.Register(NewJavaParser(), ".java")

	exts := r.Extensions()
	assert.Len(t, exts, 2)
	assert.Contains(t, exts, ".py")
	assert.Contains(t, exts, ".java")
}
