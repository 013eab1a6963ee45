// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/kraklabs/repograph/pkg/model"
)

// JavaScriptParser walks a tree-sitter-javascript parse tree, covering
// function_declaration, variable_declarator arrow-functions, and
// method_definition nodes.
type JavaScriptParser struct {
	lang *sitter.Language
}

func NewJavaScriptParser() *JavaScriptParser {
	return &JavaScriptParser{lang: javascript.GetLanguage()}
}

func (p *JavaScriptParser) Language() string { return "javascript" }

func (p *JavaScriptParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: "javascript", ContentHash: contentHash}

	root, ok := parseTree(source, p.lang)
	if !ok {
		out.Errors = append(out.Errors, "javascript: grammar failed to produce a parse tree")
		return out
	}

	w := &jsWalker{source: source, fileQual: FileQualifiedPath(relativePath), imports: make(map[string]string), out: &out}
	w.walkTop(root, nil)
	return out
}

type jsWalker struct {
	source   []byte
	fileQual string
	imports  map[string]string
	out      *ParsedFile
}

func (w *jsWalker) walkTop(node *sitter.Node, scope []string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import_statement":
			w.handleImport(child)
		case "class_declaration":
			w.handleClass(child, scope)
		case "function_declaration":
			qname := w.handleFunction(child, scope, model.KindFunction)
			_ = qname
		case "lexical_declaration", "variable_declaration":
			w.handleVarDeclaration(child, scope)
		case "export_statement":
			w.walkTop(child, scope)
		default:
			w.walkTop(child, scope)
		}
	}
}

func (w *jsWalker) handleImport(node *sitter.Node) {
	source := childByField(node, "source")
	module := trimQuotes(nodeText(source, w.source))
	clause := node.ChildByFieldName("clause")
	if clause == nil {
		// import_clause is not always a named field in this grammar; scan children.
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == "import_clause" {
				clause = node.Child(i)
			}
		}
	}
	if clause == nil {
		return
	}
	w.walkImportClause(clause, module)
}

func (w *jsWalker) walkImportClause(node *sitter.Node, module string) {
	switch node.Type() {
	case "identifier":
		name := nodeText(node, w.source)
		w.recordImport(name, module)
	case "namespace_import":
		name := nodeText(node.Child(int(node.ChildCount())-1), w.source)
		w.recordImport(name, module)
	case "named_imports":
		for i := 0; i < int(node.ChildCount()); i++ {
			spec := node.Child(i)
			if spec.Type() != "import_specifier" {
				continue
			}
			nameNode := childByField(spec, "name")
			aliasNode := childByField(spec, "alias")
			name := nodeText(nameNode, w.source)
			alias := nodeText(aliasNode, w.source)
			if alias == "" {
				alias = name
			}
			w.recordImport(alias, module)
		}
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			w.walkImportClause(node.Child(i), module)
		}
	}
}

func (w *jsWalker) recordImport(name, module string) {
	if name == "" {
		return
	}
	w.imports[name] = module
	w.out.Symbols = append(w.out.Symbols, model.Symbol{
		Name:          name,
		QualifiedName: QualifiedName(w.fileQual, "import:"+name),
		Kind:          model.KindImport,
		SourceCode:    name,
		ExtraData:     map[string]interface{}{"target": module},
	})
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: "<file>",
		TargetFilePath:   module,
		TargetSymbolName: name,
		ReferenceType:    model.RefImport,
	})
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

func (w *jsWalker) handleClass(node *sitter.Node, scope []string) {
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
		Kind:          model.KindClass,
		SourceCode:    nodeText(node, w.source),
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
	}
	if len(scope) > 0 {
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	var heritage *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == "class_heritage" && c.NamedChildCount() > 0 {
			heritage = c.NamedChild(0)
		}
	}
	if heritage != nil {
		target := nodeText(heritage, w.source)
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: name,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: lastDotted(target),
			ReferenceType:    model.RefInheritance,
		})
	}

	newScope := append(append([]string{}, scope...), name)
	body := childByField(node, "body")
	w.walkClassBody(body, newScope, qname)
}

func (w *jsWalker) walkClassBody(node *sitter.Node, scope []string, classQName string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "method_definition" {
			methodQName := w.handleFunction(child, scope, model.KindMethod)
			if methodQName != "" {
				w.out.References = append(w.out.References, model.Reference{
					SourceFilePath:   w.fileQual,
					SourceSymbolName: lastDotted(classQName),
					TargetFilePath:   w.fileQual,
					TargetSymbolName: lastDotted(methodQName),
					ReferenceType:    model.RefMember,
				})
			}
		}
	}
}

func (w *jsWalker) handleVarDeclaration(node *sitter.Node, scope []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := childByField(child, "name")
		valueNode := childByField(child, "value")
		if valueNode == nil {
			continue
		}
		if valueNode.Type() == "arrow_function" || valueNode.Type() == "function_expression" || valueNode.Type() == "function" {
			name := nodeText(nameNode, w.source)
			if name == "" {
				continue
			}
			qname := QualifiedName(w.fileQual, append(scope, name)...)
			startLine, endLine := lineRange(child)
			params := childByField(valueNode, "parameters")
			w.out.Symbols = append(w.out.Symbols, model.Symbol{
				Name:          name,
				QualifiedName: qname,
				Kind:          model.KindFunction,
				SourceCode:    nodeText(child, w.source),
				Signature:     name + nodeText(params, w.source),
				StartLine:     intPtr(startLine),
				EndLine:       intPtr(endLine),
			})
			body := childByField(valueNode, "body")
			w.walkCalls(body, name)
		}
	}
}

func (w *jsWalker) handleFunction(node *sitter.Node, scope []string, kind model.SymbolKind) string {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return ""
	}
	qname := QualifiedName(w.fileQual, append(scope, name)...)
	startLine, endLine := lineRange(node)
	params := childByField(node, "parameters")
	sym := model.Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          kind,
		SourceCode:    nodeText(node, w.source),
		Signature:     name + nodeText(params, w.source),
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
	}
	if len(scope) > 0 {
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(w.fileQual, scope...)}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	body := childByField(node, "body")
	w.walkCalls(body, name)
	return qname
}

func (w *jsWalker) walkCalls(node *sitter.Node, sourceName string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "call_expression":
		fn := childByField(node, "function")
		target := nodeText(fn, w.source)
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: lastDotted(target),
			ReferenceType:    model.RefCall,
		})
	case "new_expression":
		ctor := childByField(node, "constructor")
		target := nodeText(ctor, w.source)
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: lastDotted(target),
			ReferenceType:    model.RefInstantiation,
		})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCalls(node.Child(i), sourceName)
	}
}

func (w *jsWalker) resolveTargetFile(ref string) string {
	head := ref
	if idx := indexByte(ref, '.'); idx >= 0 {
		head = ref[:idx]
	}
	if full, ok := w.imports[head]; ok {
		return full
	}
	return w.fileQual
}
