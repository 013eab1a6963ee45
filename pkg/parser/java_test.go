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

func TestJavaParseClassWithMethodAndInheritance(t *testing.T) {
	src := []byte("import com.acme.Animal;\n\nclass Dog extends Animal {\n    void bark() {\n        helper();\n    }\n}\n")
	out := NewJavaParser().Parse(src, "Dog.java", "hash1")
	require.Empty(t, out.Errors)

	imp := findSymbol(t, out.Symbols, "Animal")
	assert.Equal(t, model.KindImport, imp.Kind)

	cls := findSymbol(t, out.Symbols, "Dog")
	assert.Equal(t, model.KindClass, cls.Kind)

	method := findSymbol(t, out.Symbols, "bark")
	assert.Equal(t, model.KindMethod, method.Kind)
	assert.Equal(t, cls.QualifiedName, method.ExtraData["parent_qualified_name"])

	inheritance, member, call := false, false, false
	for _, r := range out.References {
		switch {
		case r.ReferenceType == model.RefInheritance && r.SourceSymbolName == "Dog" && r.TargetSymbolName == "Animal":
			inheritance = true
		case r.ReferenceType == model.RefMember && r.SourceSymbolName == "Dog" && r.TargetSymbolName == "bark":
			member = true
		case r.ReferenceType == model.RefCall && r.TargetSymbolName == "helper":
			call = true
		}
	}
	assert.True(t, inheritance)
	assert.True(t, member)
	assert.True(t, call)
}

func TestJavaParseInterfaceAndEnum(t *testing.T) {
	src := []byte("interface Shape {\n}\n\nenum Color {\n    RED, GREEN\n}\n")
	out := NewJavaParser().Parse(src, "Shapes.java", "hash1")

	iface := findSymbol(t, out.Symbols, "Shape")
	assert.Equal(t, model.KindInterface, iface.Kind)

	enum := findSymbol(t, out.Symbols, "Color")
	assert.Equal(t, model.KindEnum, enum.Kind)
}

func TestJavaParseObjectCreation(t *testing.T) {
	src := []byte("class App {\n    void run() {\n        Widget w = new Widget();\n    }\n}\n")
	out := NewJavaParser().Parse(src, "App.java", "hash1")

	found := false
	for _, r := range out.References {
		if r.ReferenceType == model.RefInstantiation && r.TargetSymbolName == "Widget" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTrimImportKeyword(t *testing.T) {
	assert.Equal(t, "com.acme.Animal", trimImportKeyword("import com.acme.Animal;"))
	assert.Equal(t, "com.acme.Animal", trimImportKeyword("import  com.acme.Animal ;"))
}
