// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"path"
	"strings"
)

// FileQualifiedPath converts a relative file path to its dotted qualified-name
// prefix: separators normalized to ".", extension stripped.
//
//	"src/a/b.py" -> "src.a.b"
func FileQualifiedPath(relativePath string) string {
	ext := path.Ext(relativePath)
	trimmed := strings.TrimSuffix(relativePath, ext)
	trimmed = strings.TrimPrefix(trimmed, "./")
	return strings.ReplaceAll(trimmed, "/", ".")
}

// QualifiedName joins a file's qualified path with a chain of enclosing scope
// names using ".". Rust parsers build scoped names with RustQualifiedName
// instead, passing the scope chain already joined with "::", per spec: "::" mirrors
// Rust's own path syntax internally, "." is used only at the file-path
// boundary.
func QualifiedName(fileQualifiedPath string, scopeChain ...string) string {
	parts := make([]string, 0, len(scopeChain)+1)
	parts = append(parts, fileQualifiedPath)
	parts = append(parts, scopeChain...)
	return strings.Join(parts, ".")
}

// RustQualifiedName joins a file's qualified path with a Rust module/impl
// path already expressed with "::" separators, using "." only at the
// file-path boundary (per spec: Rust uses "::" internally to mirror its own
// path syntax).
func RustQualifiedName(fileQualifiedPath string, rustPath string) string {
	if rustPath == "" {
		return fileQualifiedPath
	}
	return fileQualifiedPath + "." + rustPath
}

// DottedToPathSubstring converts a dotted reference target path back to a
// forward-slash form suitable for substring matching against stored relative
// paths, mirroring the store's cross-file resolver.
func DottedToPathSubstring(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}
