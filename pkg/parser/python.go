// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/repograph/pkg/model"
)

// PythonParser walks a tree-sitter-python parse tree with a recursive
// walk-and-switch over node types.
type PythonParser struct {
	lang *sitter.Language
}

func NewPythonParser() *PythonParser {
	return &PythonParser{lang: python.GetLanguage()}
}

func (p *PythonParser) Language() string { return "python" }

func (p *PythonParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: "python", ContentHash: contentHash}

	root, ok := parseTree(source, p.lang)
	if !ok {
		out.Errors = append(out.Errors, "python: grammar failed to produce a parse tree")
		return out
	}

	w := &pyWalker{
		source:   source,
		fileQual: FileQualifiedPath(relativePath),
		imports:  make(map[string]string),
		out:      &out,
	}
	w.walkBlock(root, nil)
	return out
}

type pyWalker struct {
	source   []byte
	fileQual string
	imports  map[string]string // short name -> dotted module path
	out      *ParsedFile
}

func (w *pyWalker) walkBlock(node *sitter.Node, scope []string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkStatement(node.Child(i), scope)
	}
}

func (w *pyWalker) walkStatement(node *sitter.Node, scope []string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		w.handleImport(node, scope)
	case "import_from_statement":
		w.handleImportFrom(node, scope)
	case "decorated_definition":
		def := childByField(node, "definition")
		w.walkStatement(def, scope)
	case "class_definition":
		w.handleClass(node, scope)
	case "function_definition":
		w.handleFunction(node, scope, model.KindFunction)
	default:
		// Descend into bodies of control-flow/compound statements so nested
		// calls and definitions are still found.
		body := childByField(node, "body")
		if body != nil {
			w.walkBlock(body, scope)
		} else if node.Type() == "module" || node.Type() == "block" {
			w.walkBlock(node, scope)
		} else {
			for i := 0; i < int(node.ChildCount()); i++ {
				w.walkStatement(node.Child(i), scope)
			}
		}
	}
}

func (w *pyWalker) handleImport(node *sitter.Node, scope []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			full := nodeText(child, w.source)
			short := lastDotted(full)
			w.recordImport(short, full, scope)
		case "aliased_import":
			name := childByField(child, "name")
			alias := childByField(child, "alias")
			full := nodeText(name, w.source)
			short := nodeText(alias, w.source)
			if short == "" {
				short = lastDotted(full)
			}
			w.recordImport(short, full, scope)
		}
	}
}

func (w *pyWalker) handleImportFrom(node *sitter.Node, scope []string) {
	moduleNode := childByField(node, "module_name")
	module := nodeText(moduleNode, w.source)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			name := nodeText(child, w.source)
			if name == module {
				continue
			}
			w.recordImport(name, module+"."+name, scope)
		case "aliased_import":
			nameNode := childByField(child, "name")
			aliasNode := childByField(child, "alias")
			name := nodeText(nameNode, w.source)
			alias := nodeText(aliasNode, w.source)
			if alias == "" {
				alias = name
			}
			w.recordImport(alias, module+"."+name, scope)
		case "wildcard_import":
			w.recordImport("*", module, scope)
		}
	}
}

func (w *pyWalker) recordImport(shortName, fullPath string, scope []string) {
	w.imports[shortName] = fullPath
	qname := QualifiedName(w.fileQual, append(append([]string{}, scope...), "import:"+shortName)...)
	w.out.Symbols = append(w.out.Symbols, model.Symbol{
		Name:          shortName,
		QualifiedName: qname,
		Kind:          model.KindImport,
		SourceCode:    shortName,
		ExtraData:     map[string]interface{}{"target": fullPath},
	})
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: "<file>",
		TargetFilePath:   fullPath,
		TargetSymbolName: shortName,
		ReferenceType:    model.RefImport,
	})
}

func (w *pyWalker) handleClass(node *sitter.Node, scope []string) {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return
	}
	qname := QualifiedName(w.fileQual, append(scope, name)...)
	startLine, endLine := lineRange(node)
	startCol, endCol := colRange(node)
	sym := model.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          model.KindClass,
		SourceCode:    nodeText(node, w.source),
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
		StartCol:      intPtr(startCol),
		EndCol:        intPtr(endCol),
	}
	if len(scope) > 0 {
		// parent_symbol_id is resolved post-hoc by store.SymbolStore's
		// ReplaceFileSymbols using the qualified_name -> id map it maintains
		// during bulk insert.
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	if sc := childByField(node, "superclasses"); sc != nil {
		for i := 0; i < int(sc.ChildCount()); i++ {
			c := sc.Child(i)
			if c.Type() == "identifier" || c.Type() == "attribute" {
				w.out.References = append(w.out.References, model.Reference{
					SourceFilePath:   w.fileQual,
					SourceSymbolName: name,
					TargetFilePath:   w.resolveTargetFile(nodeText(c, w.source)),
					TargetSymbolName: lastDotted(nodeText(c, w.source)),
					ReferenceType:    model.RefInheritance,
				})
			}
		}
	}

	newScope := append(append([]string{}, scope...), name)
	body := childByField(node, "body")
	w.walkClassBody(body, newScope, qname)
}

func (w *pyWalker) walkClassBody(node *sitter.Node, scope []string, classQName string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorated_definition":
			def := childByField(child, "definition")
			if def != nil && def.Type() == "function_definition" {
				methodQName := w.handleFunction(def, scope, model.KindMethod)
				w.emitMember(classQName, methodQName)
			}
		case "function_definition":
			methodQName := w.handleFunction(child, scope, model.KindMethod)
			w.emitMember(classQName, methodQName)
		case "class_definition":
			w.handleClass(child, scope)
		default:
			w.walkStatement(child, scope)
		}
	}
}

func (w *pyWalker) emitMember(classQName, memberQName string) {
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: lastDotted(classQName),
		TargetFilePath:   w.fileQual,
		TargetSymbolName: lastDotted(memberQName),
		ReferenceType:    model.RefMember,
	})
}

func (w *pyWalker) handleFunction(node *sitter.Node, scope []string, kind model.SymbolKind) string {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return ""
	}
	qname := QualifiedName(w.fileQual, append(scope, name)...)
	startLine, endLine := lineRange(node)
	startCol, endCol := colRange(node)

	params := childByField(node, "parameters")
	retType := childByField(node, "return_type")
	signature := "def " + name + nodeText(params, w.source)
	if retType != nil {
		signature += " -> " + nodeText(retType, w.source)
	}

	sym := model.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          kind,
		SourceCode:    nodeText(node, w.source),
		Signature:     signature,
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
		StartCol:      intPtr(startCol),
		EndCol:        intPtr(endCol),
	}
	if len(scope) > 0 {
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	body := childByField(node, "body")
	w.walkCalls(body, name)
	return qname
}

// walkCalls scans a function body for call/instantiation expressions,
// emitting a reference whose source is the enclosing function sourceName.
func (w *pyWalker) walkCalls(node *sitter.Node, sourceName string) {
	if node == nil {
		return
	}
	if node.Type() == "call" {
		fn := childByField(node, "function")
		if fn != nil {
			target := nodeText(fn, w.source)
			refType := model.RefCall
			if isCapitalized(lastDotted(target)) {
				refType = model.RefInstantiation
			}
			w.out.References = append(w.out.References, model.Reference{
				SourceFilePath:   w.fileQual,
				SourceSymbolName: sourceName,
				TargetFilePath:   w.resolveTargetFile(target),
				TargetSymbolName: lastDotted(target),
				ReferenceType:    refType,
			})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCalls(node.Child(i), sourceName)
	}
}

// resolveTargetFile maps a bare or dotted identifier to the dotted file path
// of the module it was imported from, falling back to the current file.
func (w *pyWalker) resolveTargetFile(ref string) string {
	head := ref
	if idx := indexByte(ref, '.'); idx >= 0 {
		head = ref[:idx]
	}
	if full, ok := w.imports[head]; ok {
		return full
	}
	return w.fileQual
}

func lastDotted(s string) string {
	idx := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			idx = i
		}
	}
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func isCapitalized(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
