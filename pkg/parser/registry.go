// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"path"
	"sort"
	"strings"
	"sync"
)

// Registry is a process-wide, extension-keyed dispatch table. It is built
// once at startup and never mutated afterward.
type Registry struct {
	mu        sync.RWMutex
	byExt     map[string]Parser
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Parser)}
}

// Register binds a Parser to one or more file extensions (including the
// leading dot, e.g. ".py").
func (r *Registry) Register(p Parser, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = p
	}
}

// ParserFor returns the Parser registered for relativePath's extension, and
// whether one was found. O(1).
func (r *Registry) ParserFor(relativePath string) (Parser, bool) {
	ext := strings.ToLower(path.Ext(relativePath))
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[ext]
	return p, ok
}

// Extensions returns the sorted set of extensions currently registered.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// NewDefaultRegistry builds the Registry for all supported languages:
// .py, .java, .kt, .kts, .js, .mjs, .cjs, .rs.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPythonParser(), ".py")
	r.Register(NewJavaParser(), ".java")
	r.Register(NewKotlinParser(), ".kt", ".kts")
	r.Register(NewJavaScriptParser(), ".js", ".mjs", ".cjs")
	r.Register(NewRustParser(), ".rs")
	return r
}
