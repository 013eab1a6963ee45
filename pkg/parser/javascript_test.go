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

func TestJavaScriptParseNamedImport(t *testing.T) {
	src := []byte("import { readFile } from 'fs';\n")
	out := NewJavaScriptParser().Parse(src, "mod.js", "hash1")
	require.Empty(t, out.Errors)

	sym := findSymbol(t, out.Symbols, "readFile")
	assert.Equal(t, model.KindImport, sym.Kind)
	assert.Equal(t, "fs", sym.ExtraData["target"])
}

func TestJavaScriptParseFunctionDeclarationWithCall(t *testing.T) {
	src := []byte("function run() {\n  helper();\n}\n")
	out := NewJavaScriptParser().Parse(src, "app.js", "hash1")

	sym := findSymbol(t, out.Symbols, "run")
	assert.Equal(t, model.KindFunction, sym.Kind)

	found := false
	for _, r := range out.References {
		if r.ReferenceType == model.RefCall && r.TargetSymbolName == "helper" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestJavaScriptParseArrowFunctionVariable(t *testing.T) {
	src := []byte("const add = (a, b) => a + b;\n")
	out := NewJavaScriptParser().Parse(src, "math.js", "hash1")

	sym := findSymbol(t, out.Symbols, "add")
	assert.Equal(t, model.KindFunction, sym.Kind)
}

func TestJavaScriptParseClassWithSuperclassAndMethod(t *testing.T) {
	src := []byte("class Dog extends Animal {\n  bark() {\n    new Sound();\n  }\n}\n")
	out := NewJavaScriptParser().Parse(src, "Dog.js", "hash1")

	cls := findSymbol(t, out.Symbols, "Dog")
	assert.Equal(t, model.KindClass, cls.Kind)

	method := findSymbol(t, out.Symbols, "bark")
	assert.Equal(t, model.KindMethod, method.Kind)

	inheritance, member, instantiation := false, false, false
	for _, r := range out.References {
		switch {
		case r.ReferenceType == model.RefInheritance && r.TargetSymbolName == "Animal":
			inheritance = true
		case r.ReferenceType == model.RefMember && r.TargetSymbolName == "bark":
			member = true
		case r.ReferenceType == model.RefInstantiation && r.TargetSymbolName == "Sound":
			instantiation = true
		}
	}
	assert.True(t, inheritance)
	assert.True(t, member)
	assert.True(t, instantiation)
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "fs", trimQuotes("'fs'"))
	assert.Equal(t, "fs", trimQuotes(`"fs"`))
	assert.Equal(t, "fs", trimQuotes("fs"))
}
