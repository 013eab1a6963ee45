// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"regexp"

	"github.com/kraklabs/repograph/pkg/model"
)

// FallbackParser is a line-scanning parser used when no grammar-backed parser
// is registered for a language. It extracts top-level function-like
// declarations via regular expression rather than failing the file outright.
type FallbackParser struct {
	lang    string
	funcRE  *regexp.Regexp
}

// NewFallbackParser builds a FallbackParser for lang using funcPattern to
// locate function-like declarations; funcPattern's first capture group must
// be the declared name.
func NewFallbackParser(lang string, funcPattern string) *FallbackParser {
	return &FallbackParser{lang: lang, funcRE: regexp.MustCompile(funcPattern)}
}

func (p *FallbackParser) Language() string { return p.lang }

func (p *FallbackParser) Parse(source []byte, relativePath, contentHash string) ParsedFile {
	out := ParsedFile{RelativePath: relativePath, Language: p.lang, ContentHash: contentHash}
	fileQual := FileQualifiedPath(relativePath)

	lines := splitLines(source)
	for i, line := range lines {
		m := p.funcRE.FindStringSubmatch(line)
		if m == nil || len(m) < 2 {
			continue
		}
		name := m[1]
		startLine := i + 1
		endLine := startLine
		qname := QualifiedName(fileQual, name)
		out.Symbols = append(out.Symbols, model.Symbol{
			Name:          name,
			QualifiedName: qname,
			Kind:          model.KindFunction,
			SourceCode:    line,
			StartLine:     &startLine,
			EndLine:       &endLine,
		})
	}
	return out
}

func splitLines(source []byte) []string {
	var lines []string
	start := 0
	for i, b := range source {
		if b == '\n' {
			lines = append(lines, string(source[start:i]))
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, string(source[start:]))
	}
	return lines
}
