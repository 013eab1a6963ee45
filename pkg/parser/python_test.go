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

func findSymbol(t *testing.T, syms []model.Symbol, name string) model.Symbol {
	t.Helper()
	for _, s := range syms {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found among %d symbols", name, len(syms))
	return model.Symbol{}
}

func TestPythonParseFunctionDefinition(t *testing.T) {
	src := []byte("def greet(name):\n    return name\n")
	out := NewPythonParser().Parse(src, "greet.py", "hash1")

	require.Empty(t, out.Errors)
	sym := findSymbol(t, out.Symbols, "greet")
	assert.Equal(t, model.KindFunction, sym.Kind)
	assert.Contains(t, sym.QualifiedName, "greet")
	require.NotNil(t, sym.StartLine)
	assert.Equal(t, 1, *sym.StartLine)
}

func TestPythonParseImportStatement(t *testing.T) {
	src := []byte("import os\nimport os.path as op\n")
	out := NewPythonParser().Parse(src, "mod.py", "hash1")

	sym := findSymbol(t, out.Symbols, "os")
	assert.Equal(t, model.KindImport, sym.Kind)

	aliased := findSymbol(t, out.Symbols, "op")
	assert.Equal(t, "os.path", aliased.ExtraData["target"])

	require.NotEmpty(t, out.References)
	found := false
	for _, r := range out.References {
		if r.TargetSymbolName == "os" && r.ReferenceType == model.RefImport {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPythonParseImportFrom(t *testing.T) {
	src := []byte("from collections import OrderedDict\n")
	out := NewPythonParser().Parse(src, "mod.py", "hash1")

	sym := findSymbol(t, out.Symbols, "OrderedDict")
	assert.Equal(t, "collections.OrderedDict", sym.ExtraData["target"])
}

func TestPythonParseClassWithMethodAndInheritance(t *testing.T) {
	src := []byte("class Dog(Animal):\n    def bark(self):\n        pass\n")
	out := NewPythonParser().Parse(src, "dog.py", "hash1")

	cls := findSymbol(t, out.Symbols, "Dog")
	assert.Equal(t, model.KindClass, cls.Kind)

	method := findSymbol(t, out.Symbols, "bark")
	assert.Equal(t, model.KindMethod, method.Kind)
	assert.Equal(t, cls.QualifiedName, method.ExtraData["parent_qualified_name"])

	inheritance := false
	member := false
	for _, r := range out.References {
		switch r.ReferenceType {
		case model.RefInheritance:
			if r.SourceSymbolName == "Dog" && r.TargetSymbolName == "Animal" {
				inheritance = true
			}
		case model.RefMember:
			if r.SourceSymbolName == "Dog" && r.TargetSymbolName == "bark" {
				member = true
			}
		}
	}
	assert.True(t, inheritance, "expected inheritance reference from Dog to Animal")
	assert.True(t, member, "expected member reference from Dog to bark")
}

func TestPythonParseCallAndInstantiation(t *testing.T) {
	src := []byte("def run():\n    helper()\n    Widget()\n")
	out := NewPythonParser().Parse(src, "app.py", "hash1")

	call := false
	instantiation := false
	for _, r := range out.References {
		switch {
		case r.TargetSymbolName == "helper" && r.ReferenceType == model.RefCall:
			call = true
		case r.TargetSymbolName == "Widget" && r.ReferenceType == model.RefInstantiation:
			instantiation = true
		}
	}
	assert.True(t, call, "expected call reference to helper")
	assert.True(t, instantiation, "expected instantiation reference to Widget")
}

func TestPythonParseMalformedSourceStillReturnsResult(t *testing.T) {
	out := NewPythonParser().Parse([]byte("def ((("), "broken.py", "hash1")
	assert.Equal(t, "python", out.Language)
	assert.Equal(t, "broken.py", out.RelativePath)
}
