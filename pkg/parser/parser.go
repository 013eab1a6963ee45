// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package parser defines the per-language parsing contract and the
// extension-keyed registry that dispatches a file to its parser.
package parser

import "github.com/kraklabs/repograph/pkg/model"

// ParsedFile is the pure output of parsing one file: its extracted symbols,
// the references those symbols make, and any error encountered (in which
// case Symbols and References are empty).
type ParsedFile struct {
	RelativePath string
	Language     string
	ContentHash  string
	Symbols      []model.Symbol
	References   []model.Reference
	Errors       []string
}

// Parser parses one file's source text into symbols and references. A
// Parser is pure: it never touches storage or performs I/O of its own.
type Parser interface {
	// Parse extracts symbols and references from source. relativePath is the
	// file's path within the repository (forward-slash separated);
	// contentHash is the caller-computed fingerprint attached to the result.
	Parse(source []byte, relativePath, contentHash string) ParsedFile

	// Language returns the language name this parser reports on ParsedFile.
	Language() string
}

var _ Parser = (*FallbackParser)(nil)
