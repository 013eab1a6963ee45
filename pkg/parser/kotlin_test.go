// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/repograph/pkg/model"
)

func TestKotlinParseImport(t *testing.T) {
	src := []byte("import com.acme.Widget as W\n")
	out := NewKotlinParser().Parse(src, "mod.kt", "hash1")

	sym := findSymbol(t, out.Symbols, "W")
	assert.Equal(t, model.KindImport, sym.Kind)
	assert.Equal(t, "com.acme.Widget", sym.ExtraData["target"])
}

func TestKotlinParseClassWithMethodAndSupertype(t *testing.T) {
	src := []byte("class Dog(val name: String) : Animal {\n    fun bark() {\n        helper()\n    }\n}\n")
	out := NewKotlinParser().Parse(src, "Dog.kt", "hash1")

	cls := findSymbol(t, out.Symbols, "Dog")
	assert.Equal(t, model.KindClass, cls.Kind)

	method := findSymbol(t, out.Symbols, "bark")
	assert.Equal(t, model.KindMethod, method.Kind)

	inheritance, member, call := false, false, false
	for _, r := range out.References {
		switch {
		case r.ReferenceType == model.RefInheritance && r.TargetSymbolName == "Animal":
			inheritance = true
		case r.ReferenceType == model.RefMember && r.TargetSymbolName == "bark":
			member = true
		case r.ReferenceType == model.RefCall && r.TargetSymbolName == "helper":
			call = true
		}
	}
	assert.True(t, inheritance)
	assert.True(t, member)
	assert.True(t, call)
}

func TestKotlinParseDSLArgumentWalk(t *testing.T) {
	src := []byte("class App(val repo: Repository) {\n    fun run() {\n        process(repo)\n    }\n}\n")
	out := NewKotlinParser().Parse(src, "App.kt", "hash1")

	found := false
	for _, r := range out.References {
		if r.ReferenceType == model.RefCall && r.TargetSymbolName == "repo" {
			found = true
		}
	}
	assert.True(t, found, "expected a DSL-argument call edge for the repo field")
}

func TestBraceDeltaIgnoresBracesInStrings(t *testing.T) {
	assert.Equal(t, 0, braceDelta(`val s = "{ not a brace }"`))
	assert.Equal(t, 1, braceDelta("fun run() {"))
	assert.Equal(t, -1, braceDelta("}"))
}
