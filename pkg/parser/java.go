// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/kraklabs/repograph/pkg/model"
)

// JavaParser walks a tree-sitter-java parse tree.
type JavaParser struct {
	lang *sitter.Language
}

func NewJavaParser() *JavaParser {
	return &JavaParser{lang: java.GetLanguage()}
}

func (p *JavaParser) Language() string { return "java" }

func (p *JavaParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: "java", ContentHash: contentHash}

	root, ok := parseTree(source, p.lang)
	if !ok {
		out.Errors = append(out.Errors, "java: grammar failed to produce a parse tree")
		return out
	}

	w := &javaWalker{source: source, fileQual: FileQualifiedPath(relativePath), imports: make(map[string]string), out: &out}
	w.walkTop(root, nil)
	return out
}

type javaWalker struct {
	source   []byte
	fileQual string
	imports  map[string]string
	out      *ParsedFile
}

func (w *javaWalker) walkTop(node *sitter.Node, scope []string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import_declaration":
			w.handleImport(child)
		case "class_declaration":
			w.handleType(child, scope, model.KindClass)
		case "interface_declaration":
			w.handleType(child, scope, model.KindInterface)
		case "enum_declaration":
			w.handleType(child, scope, model.KindEnum)
		default:
			w.walkTop(child, scope)
		}
	}
}

func (w *javaWalker) handleImport(node *sitter.Node) {
	full := nodeText(node, w.source)
	full = trimImportKeyword(full)
	short := lastDotted(full)
	w.imports[short] = full
	w.out.Symbols = append(w.out.Symbols, model.Symbol{
		Name:          short,
		QualifiedName: QualifiedName(w.fileQual, "import:"+short),
		Kind:          model.KindImport,
		SourceCode:    full,
		ExtraData:     map[string]interface{}{"target": full},
	})
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: "<file>",
		TargetFilePath:   full,
		TargetSymbolName: short,
		ReferenceType:    model.RefImport,
	})
}

func trimImportKeyword(s string) string {
	// "import pkg.Type;" -> "pkg.Type"
	start := 0
	for start < len(s) && s[start] == ' ' {
		start++
	}
	if len(s) >= start+6 && s[start:start+6] == "import" {
		start += 6
	}
	end := len(s)
	for end > start && (s[end-1] == ';' || s[end-1] == ' ') {
		end--
	}
	for start < end && s[start] == ' ' {
		start++
	}
	return s[start:end]
}

func (w *javaWalker) handleType(node *sitter.Node, scope []string, kind model.SymbolKind) {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return
	}
	qname := QualifiedName(w.fileQual, append(scope, name)...)
	startLine, endLine := lineRange(node)
	sym := model.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          kind,
		SourceCode:    nodeText(node, w.source),
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
	}
	if len(scope) > 0 {
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	if super := childByField(node, "superclass"); super != nil {
		target := lastIdentifier(super, w.source)
		w.emitInheritance(name, target)
	}
	if ifaces := childByField(node, "interfaces"); ifaces != nil {
		w.walkIdentifiers(ifaces, func(id string) {
			w.emitInheritance(name, id)
		})
	}

	newScope := append(append([]string{}, scope...), name)
	body := childByField(node, "body")
	w.walkTypeBody(body, newScope, qname)
}

func (w *javaWalker) emitInheritance(sourceName, targetName string) {
	if targetName == "" {
		return
	}
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: sourceName,
		TargetFilePath:   w.resolveTargetFile(targetName),
		TargetSymbolName: targetName,
		ReferenceType:    model.RefInheritance,
	})
}

func (w *javaWalker) walkIdentifiers(node *sitter.Node, fn func(string)) {
	if node.Type() == "type_identifier" {
		fn(nodeText(node, w.source))
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkIdentifiers(node.Child(i), fn)
	}
}

func lastIdentifier(node *sitter.Node, source []byte) string {
	var found string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "type_identifier" {
			found = nodeText(n, source)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return found
}

func (w *javaWalker) walkTypeBody(node *sitter.Node, scope []string, typeQName string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "method_declaration", "constructor_declaration":
			methodQName := w.handleMethod(child, scope)
			w.emitMember(typeQName, methodQName)
		case "class_declaration":
			w.handleType(child, scope, model.KindClass)
		case "interface_declaration":
			w.handleType(child, scope, model.KindInterface)
		case "enum_declaration":
			w.handleType(child, scope, model.KindEnum)
		}
	}
}

func (w *javaWalker) emitMember(typeQName, memberQName string) {
	if memberQName == "" {
		return
	}
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: lastDotted(typeQName),
		TargetFilePath:   w.fileQual,
		TargetSymbolName: lastDotted(memberQName),
		ReferenceType:    model.RefMember,
	})
}

func (w *javaWalker) handleMethod(node *sitter.Node, scope []string) string {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return ""
	}
	qname := QualifiedName(w.fileQual, append(scope, name)...)
	startLine, endLine := lineRange(node)
	params := childByField(node, "parameters")
	retType := childByField(node, "type")
	signature := name + nodeText(params, w.source)
	if retType != nil {
		signature = nodeText(retType, w.source) + " " + signature
	}
	sym := model.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          model.KindMethod,
		SourceCode:    nodeText(node, w.source),
		Signature:     signature,
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
		ExtraData:     map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)},
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	body := childByField(node, "body")
	w.walkCalls(body, name)
	return qname
}

func (w *javaWalker) walkCalls(node *sitter.Node, sourceName string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "method_invocation":
		nameNode := childByField(node, "name")
		target := nodeText(nameNode, w.source)
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: target,
			ReferenceType:    model.RefCall,
		})
	case "object_creation_expression":
		typeNode := childByField(node, "type")
		target := nodeText(typeNode, w.source)
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: target,
			ReferenceType:    model.RefInstantiation,
		})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCalls(node.Child(i), sourceName)
	}
}

func (w *javaWalker) resolveTargetFile(name string) string {
	if full, ok := w.imports[name]; ok {
		return full
	}
	return w.fileQual
}
