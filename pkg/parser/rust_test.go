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

func TestRustParseUseDeclaration(t *testing.T) {
	src := []byte("use std::collections::HashMap;\n")
	out := NewRustParser().Parse(src, "mod.rs", "hash1")
	require.Empty(t, out.Errors)

	sym := findSymbol(t, out.Symbols, "HashMap")
	assert.Equal(t, model.KindImport, sym.Kind)
	assert.Equal(t, "std.collections.HashMap", sym.ExtraData["target"])
}

func TestRustParseUseGroupFlattensLeaves(t *testing.T) {
	src := []byte("use std::io::{Read, Write};\n")
	out := NewRustParser().Parse(src, "mod.rs", "hash1")

	findSymbol(t, out.Symbols, "Read")
	findSymbol(t, out.Symbols, "Write")
}

func TestRustParseStructAndImplWithFunction(t *testing.T) {
	src := []byte("struct Dog;\n\nimpl Dog {\n    fn bark(&self) {\n        helper();\n    }\n}\n")
	out := NewRustParser().Parse(src, "dog.rs", "hash1")

	strct := findSymbol(t, out.Symbols, "Dog")
	assert.Equal(t, model.KindStruct, strct.Kind)

	method := findSymbol(t, out.Symbols, "bark")
	assert.Equal(t, model.KindMethod, method.Kind)

	member, call := false, false
	for _, r := range out.References {
		switch {
		case r.ReferenceType == model.RefMember && r.TargetSymbolName == "bark":
			member = true
		case r.ReferenceType == model.RefCall && r.TargetSymbolName == "helper":
			call = true
		}
	}
	assert.True(t, member)
	assert.True(t, call)
}

func TestRustParseImplTraitForTypeEmitsInheritance(t *testing.T) {
	src := []byte("trait Animal {\n}\n\nimpl Animal for Dog {\n}\n")
	out := NewRustParser().Parse(src, "dog.rs", "hash1")

	found := false
	for _, r := range out.References {
		if r.ReferenceType == model.RefInheritance && r.SourceSymbolName == "Dog" && r.TargetSymbolName == "Animal" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLastRustColonSegment(t *testing.T) {
	assert.Equal(t, "new", lastRustColonSegment("Dog::new"))
	assert.Equal(t, "helper", lastRustColonSegment("helper"))
}
