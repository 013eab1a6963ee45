// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/model"
)

func TestFallbackParserExtractsFunctionLikeDeclarations(t *testing.T) {
	p := NewFallbackParser("ruby", `^\s*def\s+(\w+)`)
	src := []byte("class Dog\n  def bark\n    puts 'woof'\n  end\nend\n")

	out := p.Parse(src, "dog.rb", "hash1")
	require.Len(t, out.Symbols, 1)

	sym := out.Symbols[0]
	assert.Equal(t, "bark", sym.Name)
	assert.Equal(t, model.KindFunction, sym.Kind)
	assert.Equal(t, "ruby", out.Language)
	require.NotNil(t, sym.StartLine)
	assert.Equal(t, 2, *sym.StartLine)
}

func TestFallbackParserNoMatches(t *testing.T) {
	p := NewFallbackParser("text", `^func (\w+)`)
	out := p.Parse([]byte("just some plain text\n"), "notes.txt", "hash1")
	assert.Empty(t, out.Symbols)
}

func TestSplitLinesHandlesTrailingNewline(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines([]byte("a\nb\n")))
	assert.Equal(t, []string{"a", "b"}, splitLines([]byte("a\nb")))
	assert.Empty(t, splitLines([]byte("")))
}
