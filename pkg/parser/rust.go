// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/kraklabs/repograph/pkg/model"
)

// RustParser walks a tree-sitter-rust parse tree. Scope chains are joined
// with "::" (mirroring Rust's own path syntax) and only crossed over to "."
// at the file-path boundary, per the qualified-name rule.
type RustParser struct {
	lang *sitter.Language
}

func NewRustParser() *RustParser {
	return &RustParser{lang: rust.GetLanguage()}
}

func (p *RustParser) Language() string { return "rust" }

func (p *RustParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: "rust", ContentHash: contentHash}

	root, ok := parseTree(source, p.lang)
	if !ok {
		out.Errors = append(out.Errors, "rust: grammar failed to produce a parse tree")
		return out
	}

	w := &rustWalker{source: source, fileQual: FileQualifiedPath(relativePath), imports: make(map[string]string), out: &out}
	w.walkTop(root, nil)
	return out
}

type rustWalker struct {
	source   []byte
	fileQual string
	imports  map[string]string
	out      *ParsedFile
}

func (w *rustWalker) walkTop(node *sitter.Node, scope []string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "use_declaration":
			w.handleUse(child)
		case "mod_item":
			w.handleMod(child, scope)
		case "struct_item":
			w.handleTypeItem(child, scope, model.KindStruct)
		case "trait_item":
			w.handleTrait(child, scope)
		case "enum_item":
			w.handleTypeItem(child, scope, model.KindEnum)
		case "impl_item":
			w.handleImpl(child, scope)
		case "function_item":
			w.handleFunction(child, scope, model.KindFunction)
		default:
			w.walkTop(child, scope)
		}
	}
}

func (w *rustWalker) handleUse(node *sitter.Node) {
	text := nodeText(node, w.source)
	text = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "use "), ";")
	text = strings.TrimSpace(text)
	// Flatten a `use a::b::{c, d as e};` group import into one entry per leaf.
	if idx := strings.Index(text, "{"); idx >= 0 && strings.HasSuffix(text, "}") {
		prefix := strings.TrimSuffix(text[:idx], "::")
		inner := text[idx+1 : len(text)-1]
		for _, leaf := range strings.Split(inner, ",") {
			leaf = strings.TrimSpace(leaf)
			if leaf == "" {
				continue
			}
			w.recordUse(prefix, leaf)
		}
		return
	}
	last := strings.LastIndex(text, "::")
	prefix := ""
	leaf := text
	if last >= 0 {
		prefix = text[:last]
		leaf = text[last+2:]
	}
	w.recordUse(prefix, leaf)
}

func (w *rustWalker) recordUse(prefix, leaf string) {
	short := leaf
	full := leaf
	if idx := strings.Index(leaf, " as "); idx >= 0 {
		full = strings.TrimSpace(leaf[:idx])
		short = strings.TrimSpace(leaf[idx+4:])
	}
	target := full
	if prefix != "" {
		target = prefix + "::" + full
	}
	dottedTarget := strings.ReplaceAll(target, "::", ".")
	w.imports[short] = dottedTarget
	w.out.Symbols = append(w.out.Symbols, model.Symbol{
		Name:          short,
		QualifiedName: QualifiedName(w.fileQual, "import:"+short),
		Kind:          model.KindImport,
		SourceCode:    target,
		ExtraData:     map[string]interface{}{"target": dottedTarget},
	})
	w.out.References = append(w.out.References, model.Reference{
		SourceFilePath:   w.fileQual,
		SourceSymbolName: "<file>",
		TargetFilePath:   dottedTarget,
		TargetSymbolName: short,
		ReferenceType:    model.RefImport,
	})
}

func (w *rustWalker) handleMod(node *sitter.Node, scope []string) {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	body := childByField(node, "body")
	if body == nil || name == "" {
		return
	}
	w.walkTop(body, append(scope, name))
}

func (w *rustWalker) handleTypeItem(node *sitter.Node, scope []string, kind model.SymbolKind) {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return
	}
	w.emitTypeSymbol(node, name, scope, kind)
}

func (w *rustWalker) handleTrait(node *sitter.Node, scope []string) {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return
	}
	qname := w.emitTypeSymbol(node, name, scope, model.KindTrait)
	newScope := append(append([]string{}, scope...), name)
	body := childByField(node, "body")
	w.walkImplBody(body, newScope, qname)
}

func (w *rustWalker) emitTypeSymbol(node *sitter.Node, name string, scope []string, kind model.SymbolKind) string {
	rustPath := strings.Join(append(append([]string{}, scope...), name), "::")
	qname := RustQualifiedName(w.fileQual, rustPath)
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
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": RustQualifiedName(w.fileQual, strings.Join(scope, "::"))}
	}
	w.out.Symbols = append(w.out.Symbols, sym)
	return qname
}

// handleImpl treats `impl Trait for Type { ... }` / `impl Type { ... }` as an
// impl-kind symbol whose members are the contained functions, emitting a
// member edge from the impl symbol (e.g. "impl Trait for Type") to each
// contained function and an inheritance edge from the implementing type to
// the trait being implemented, when present.
func (w *rustWalker) handleImpl(node *sitter.Node, scope []string) {
	typeNode := childByField(node, "type")
	traitNode := childByField(node, "trait")
	typeName := nodeText(typeNode, w.source)
	if typeName == "" {
		return
	}
	label := typeName
	if traitNode != nil {
		label = nodeText(traitNode, w.source) + " for " + typeName
	}
	rustPath := strings.Join(append(append([]string{}, scope...), "impl "+label), "::")
	qname := RustQualifiedName(w.fileQual, rustPath)
	startLine, endLine := lineRange(node)
	w.out.Symbols = append(w.out.Symbols, model.Symbol{
		Name:          "impl " + label,
		QualifiedName: qname,
		Kind:          model.KindImpl,
		SourceCode:    nodeText(node, w.source),
		StartLine:     intPtr(startLine),
		EndLine:       intPtr(endLine),
	})
	if traitNode != nil {
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: typeName,
			TargetFilePath:   w.resolveTargetFile(nodeText(traitNode, w.source)),
			TargetSymbolName: nodeText(traitNode, w.source),
			ReferenceType:    model.RefInheritance,
		})
	}
	newScope := append(append([]string{}, scope...), "impl "+label)
	body := childByField(node, "body")
	w.walkImplBody(body, newScope, qname)
}

func (w *rustWalker) walkImplBody(node *sitter.Node, scope []string, containerQName string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "function_item" {
			methodQName := w.handleFunction(child, scope, model.KindMethod)
			if methodQName != "" {
				w.out.References = append(w.out.References, model.Reference{
					SourceFilePath:   w.fileQual,
					SourceSymbolName: lastRustSegment(containerQName),
					TargetFilePath:   w.fileQual,
					TargetSymbolName: lastRustSegment(methodQName),
					ReferenceType:    model.RefMember,
				})
			}
		}
	}
}

func lastRustSegment(qname string) string {
	if idx := strings.LastIndex(qname, "::"); idx >= 0 {
		return qname[idx+2:]
	}
	return lastDotted(qname)
}

func (w *rustWalker) handleFunction(node *sitter.Node, scope []string, kind model.SymbolKind) string {
	nameNode := childByField(node, "name")
	name := nodeText(nameNode, w.source)
	if name == "" {
		return ""
	}
	rustPath := strings.Join(append(append([]string{}, scope...), name), "::")
	qname := RustQualifiedName(w.fileQual, rustPath)
	startLine, endLine := lineRange(node)
	params := childByField(node, "parameters")
	retType := childByField(node, "return_type")
	signature := "fn " + name + nodeText(params, w.source)
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
	}
	if len(scope) > 0 {
		sym.ExtraData = map[string]interface{}{"parent_qualified_name": RustQualifiedName(w.fileQual, strings.Join(scope, "::"))}
	}
	w.out.Symbols = append(w.out.Symbols, sym)

	body := childByField(node, "body")
	w.walkCalls(body, name)
	return qname
}

func (w *rustWalker) walkCalls(node *sitter.Node, sourceName string) {
	if node == nil {
		return
	}
	if node.Type() == "call_expression" {
		fn := childByField(node, "function")
		target := nodeText(fn, w.source)
		refType := model.RefCall
		if fn != nil && fn.Type() == "scoped_identifier" {
			// heuristic: `Type::new(...)` style construction calls read as
			// instantiation when the last segment looks like a constructor.
			last := lastRustColonSegment(target)
			if last == "new" || isCapitalized(last) {
				refType = model.RefInstantiation
			}
		}
		w.out.References = append(w.out.References, model.Reference{
			SourceFilePath:   w.fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   w.resolveTargetFile(target),
			TargetSymbolName: lastRustColonSegment(target),
			ReferenceType:    refType,
		})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCalls(node.Child(i), sourceName)
	}
}

func lastRustColonSegment(s string) string {
	if idx := strings.LastIndex(s, "::"); idx >= 0 {
		return s[idx+2:]
	}
	return lastDotted(s)
}

func (w *rustWalker) resolveTargetFile(ref string) string {
	head := ref
	if idx := strings.Index(ref, "::"); idx >= 0 {
		head = ref[:idx]
	}
	if full, ok := w.imports[head]; ok {
		return full
	}
	return w.fileQual
}
