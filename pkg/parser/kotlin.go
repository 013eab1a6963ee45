// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"regexp"
	"strings"

	"github.com/kraklabs/repograph/pkg/model"
)

// KotlinParser is a hand-written, brace-depth-tracking scanner. No
// tree-sitter grammar for Kotlin ships in this module's dependency set, so
// this parser uses a simplified, non-grammar scan rather than a CST walk.
// It still extracts the full symbol/reference contract: symbols, references,
// the field->type table, and a DSL argument walk.
type KotlinParser struct{}

func NewKotlinParser() *KotlinParser { return &KotlinParser{} }

func (p *KotlinParser) Language() string { return "kotlin" }

var (
	kotlinImportRE    = regexp.MustCompile(`^\s*import\s+([\w.]+)(?:\s+as\s+(\w+))?`)
	kotlinClassRE     = regexp.MustCompile(`^\s*(?:public|private|internal|protected|abstract|open|sealed|data|final|enum|annotation)?\s*(class|interface|object)\s+(\w+)(\s*\([^)]*\))?(\s*:\s*([^{]+))?\s*\{?`)
	kotlinFunRE       = regexp.MustCompile(`^\s*(?:public|private|internal|protected|open|override|suspend|inline|final|abstract)?\s*fun\s+(?:<[^>]*>\s*)?(\w+)\s*\(([^)]*)\)(\s*:\s*[\w<>.,?\s]+)?\s*\{?`)
	kotlinPropertyRE  = regexp.MustCompile(`^\s*(?:public|private|internal|protected|override|open|final|const)?\s*(?:val|var)\s+(\w+)\s*:\s*([\w<>.,?\s\[\]]+?)(\s*=.*)?$`)
	kotlinParamRE     = regexp.MustCompile(`(?:val|var)?\s*(\w+)\s*:\s*([\w<>.,?\[\]]+)`)
	kotlinCallRE      = regexp.MustCompile(`([\w][\w.]*)\s*\(`)
	kotlinIdentRE     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type kotlinScope struct {
	name       string
	kind       model.SymbolKind
	qualified  string
	braceDepth int // brace depth at which this scope's body starts
}

func (p *KotlinParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: "kotlin", ContentHash: contentHash}
	fileQual := FileQualifiedPath(relativePath)
	lines := splitLines(source)

	fields := make(map[string]string) // field/param name -> declared type, one table for the whole file
	imports := make(map[string]string)

	var scopes []kotlinScope
	depth := 0

	currentFunc := func() string {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i].kind == model.KindFunction || scopes[i].kind == model.KindMethod {
				return scopes[i].qualified
			}
		}
		return "<file>"
	}
	currentFuncName := func() string {
		q := currentFunc()
		return lastDotted(q)
	}
	enclosingClass := func() *kotlinScope {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i].kind == model.KindClass || scopes[i].kind == model.KindInterface {
				return &scopes[i]
			}
		}
		return nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := kotlinImportRE.FindStringSubmatch(trimmed); m != nil {
			full := m[1]
			short := m[2]
			if short == "" {
				short = lastDotted(full)
			}
			imports[short] = full
			out.Symbols = append(out.Symbols, model.Symbol{
				Name:          short,
				QualifiedName: QualifiedName(fileQual, "import:"+short),
				Kind:          model.KindImport,
				SourceCode:    trimmed,
				ExtraData:     map[string]interface{}{"target": full},
			})
			out.References = append(out.References, model.Reference{
				SourceFilePath:   fileQual,
				SourceSymbolName: "<file>",
				TargetFilePath:   full,
				TargetSymbolName: short,
				ReferenceType:    model.RefImport,
			})
			depth += braceDelta(line)
			continue
		}

		if m := kotlinClassRE.FindStringSubmatch(trimmed); m != nil {
			kind := model.KindClass
			if m[1] == "interface" {
				kind = model.KindInterface
			}
			name := m[2]
			scopeNames := scopeNameChain(scopes)
			qname := QualifiedName(fileQual, append(scopeNames, name)...)
			sym := model.Symbol{
				Name:          name,
				QualifiedName: qname,
				Kind:          kind,
				SourceCode:    trimmed,
			}
			if len(scopeNames) > 0 {
				sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(fileQual, scopeNames...)}
			}
			out.Symbols = append(out.Symbols, sym)

			// constructor parameters -> field->type table
			if m[3] != "" {
				for _, pm := range kotlinParamRE.FindAllStringSubmatch(m[3], -1) {
					fields[pm[1]] = strings.TrimSpace(pm[2])
				}
			}
			// supertypes
			if m[5] != "" {
				for _, super := range strings.Split(m[5], ",") {
					super = strings.TrimSpace(super)
					super = strings.SplitN(super, "(", 2)[0]
					super = strings.TrimSpace(super)
					if super == "" {
						continue
					}
					target := imports[super]
					if target == "" {
						target = fileQual
					}
					out.References = append(out.References, model.Reference{
						SourceFilePath:   fileQual,
						SourceSymbolName: name,
						TargetFilePath:   target,
						TargetSymbolName: super,
						ReferenceType:    model.RefInheritance,
					})
				}
			}

			depth += braceDelta(line)
			scopes = append(scopes, kotlinScope{name: name, kind: kind, qualified: qname, braceDepth: depth})
			continue
		}

		if m := kotlinFunRE.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			params := m[2]
			kind := model.KindFunction
			var classScope *kotlinScope
			if cs := enclosingClass(); cs != nil && cs.braceDepth == depth {
				kind = model.KindMethod
				classScope = cs
			}
			scopeNames := scopeNameChain(scopes)
			qname := QualifiedName(fileQual, append(scopeNames, name)...)
			sym := model.Symbol{
				Name:          name,
				QualifiedName: qname,
				Kind:          kind,
				SourceCode:    trimmed,
				Signature:     "fun " + name + "(" + params + ")",
			}
			if len(scopeNames) > 0 {
				sym.ExtraData = map[string]interface{}{"parent_qualified_name": QualifiedName(fileQual, scopeNames...)}
			}
			out.Symbols = append(out.Symbols, sym)
			if classScope != nil {
				out.References = append(out.References, model.Reference{
					SourceFilePath:   fileQual,
					SourceSymbolName: classScope.name,
					TargetFilePath:   fileQual,
					TargetSymbolName: name,
					ReferenceType:    model.RefMember,
				})
			}
			for _, pm := range kotlinParamRE.FindAllStringSubmatch(params, -1) {
				fields[pm[1]] = strings.TrimSpace(pm[2])
			}

			depth += braceDelta(line)
			scopes = append(scopes, kotlinScope{name: name, kind: kind, qualified: qname, braceDepth: depth})
			continue
		}

		if m := kotlinPropertyRE.FindStringSubmatch(trimmed); m != nil {
			fields[m[1]] = strings.TrimSpace(m[2])
			depth += braceDelta(line)
			continue
		}

		// Call scan + DSL argument walk, only meaningful inside a function body.
		if len(scopes) > 0 {
			for _, cm := range kotlinCallRE.FindAllStringSubmatch(trimmed, -1) {
				callee := cm[1]
				simple := lastDotted(callee)
				if simple == "" || !kotlinIdentRE.MatchString(simple) {
					continue
				}
				if isKotlinKeyword(simple) {
					continue
				}
				target := fileQual
				receiver := ""
				if idx := strings.LastIndex(callee, "."); idx >= 0 {
					receiver = callee[:idx]
				}
				if full, ok := imports[callee]; ok {
					target = full
				} else if fieldType, ok := fields[receiver]; ok {
					// receiver.method(...) where receiver is a known field:
					// translate to (target_path=type's qualified path, target_symbol_name=method)
					target = kotlinTypeFilePath(fieldType, imports)
				}
				out.References = append(out.References, model.Reference{
					SourceFilePath:   fileQual,
					SourceSymbolName: currentFuncName(),
					TargetFilePath:   target,
					TargetSymbolName: simple,
					ReferenceType:    model.RefCall,
				})
			}
			walkKotlinDSLArgs(trimmed, fields, imports, fileQual, currentFuncName(), &out)
		}

		newDepth := depth + braceDelta(line)
		// pop any scopes whose body has closed
		for len(scopes) > 0 && newDepth < scopes[len(scopes)-1].braceDepth {
			scopes = scopes[:len(scopes)-1]
		}
		depth = newDepth
	}

	return out
}

func scopeNameChain(scopes []kotlinScope) []string {
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.name)
	}
	return names
}

func braceDelta(line string) int {
	delta := 0
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case '{':
			if !inString {
				delta++
			}
		case '}':
			if !inString {
				delta--
			}
		}
	}
	return delta
}

func kotlinTypeFilePath(typ string, imports map[string]string) string {
	typ = strings.TrimSuffix(typ, "?")
	if idx := strings.Index(typ, "<"); idx >= 0 {
		typ = typ[:idx]
	}
	if full, ok := imports[typ]; ok {
		return full
	}
	return typ
}

// walkKotlinDSLArgs scans a call's argument list for bare identifiers that
// name a known field, emitting an additional call edge to the field's type
// (e.g. `.process(someBean)`).
func walkKotlinDSLArgs(line string, fields map[string]string, imports map[string]string, fileQual, sourceName string, out *ParsedFile) {
	open := strings.Index(line, "(")
	close := strings.LastIndex(line, ")")
	if open < 0 || close <= open {
		return
	}
	args := line[open+1 : close]
	for _, arg := range strings.Split(args, ",") {
		arg = strings.TrimSpace(arg)
		if !kotlinIdentRE.MatchString(arg) {
			continue
		}
		typ, ok := fields[arg]
		if !ok {
			continue
		}
		out.References = append(out.References, model.Reference{
			SourceFilePath:   fileQual,
			SourceSymbolName: sourceName,
			TargetFilePath:   kotlinTypeFilePath(typ, imports),
			TargetSymbolName: arg,
			ReferenceType:    model.RefCall,
		})
	}
}

func isKotlinKeyword(s string) bool {
	switch s {
	case "if", "for", "while", "when", "return", "fun", "class", "val", "var", "super", "this":
		return true
	}
	return false
}
