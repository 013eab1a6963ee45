// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package discovery walks a repository root and returns the sorted set of
// admitted files plus a nested repo-tree.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/repograph/pkg/parser"
)

// skipDirs is the hard-coded directory-name skip set.
var skipDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true, "__pycache__": true,
	".pytest_cache": true, ".mypy_cache": true, ".ruff_cache": true,
	"venv": true, ".venv": true, "env": true, ".env": true,
	"target": true, "build": true, "dist": true,
	".idea": true, ".vscode": true,
}

const maxTreeDepth = 100

// DiscoveredFile is one admitted file found under a repository root.
type DiscoveredFile struct {
	RelativePath string
	AbsolutePath string
	Size         int64
}

// Result is the output of Walk: the sorted file list, the repo-tree, and the
// distinct set of languages (by extension-derived language name) present.
type Result struct {
	Files     []DiscoveredFile
	RepoTree  map[string]interface{}
	Languages []string
}

// Options configures a Walk.
type Options struct {
	MaxFileSizeBytes int64 // default 1_000_000
}

// Walk traverses root, admitting files whose extension is registered in reg
// and whose size is within MaxFileSizeBytes, pruning skipDirs along the way.
func Walk(root string, reg *parser.Registry, opts Options) (*Result, error) {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 1_000_000
	}

	var files []DiscoveredFile
	langSet := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		p, ok := reg.ParserFor(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > opts.MaxFileSizeBytes {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		files = append(files, DiscoveredFile{RelativePath: rel, AbsolutePath: path, Size: info.Size()})
		langSet[p.Language()] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })

	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	tree, err := buildRepoTree(files)
	if err != nil {
		return nil, err
	}

	return &Result{Files: files, RepoTree: tree, Languages: languages}, nil
}

// buildRepoTree produces a nested mapping: each directory is an inner
// mapping, each file an empty inner mapping.
func buildRepoTree(files []DiscoveredFile) (map[string]interface{}, error) {
	root := make(map[string]interface{})
	for _, f := range files {
		parts := strings.Split(f.RelativePath, "/")
		if len(parts) > maxTreeDepth {
			return nil, fmt.Errorf("discovery: repo tree depth exceeds %d at %s", maxTreeDepth, f.RelativePath)
		}
		node := root
		for i, part := range parts {
			if i == len(parts)-1 {
				node[part] = map[string]interface{}{}
				continue
			}
			next, ok := node[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				node[part] = next
			}
			node = next
		}
	}
	return root, nil
}

// FolderStructure returns the immediate-parent-directory snapshot for
// relativePath: the sibling files/subdirectories one level up, keyed under
// the parent path (or "." for root-level files).
func FolderStructure(relativePath string, allFiles []DiscoveredFile) map[string]interface{} {
	parentDir := "."
	if idx := strings.LastIndex(relativePath, "/"); idx >= 0 {
		parentDir = relativePath[:idx]
	}
	prefix := ""
	if parentDir != "." {
		prefix = parentDir + "/"
	}
	children := make(map[string]interface{})
	for _, f := range allFiles {
		if !strings.HasPrefix(f.RelativePath, prefix) {
			continue
		}
		// a direct file keeps its name; a deeper file contributes its
		// first subdirectory under parentDir
		name := f.RelativePath[len(prefix):]
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[:idx]
		}
		children[name] = map[string]interface{}{}
	}
	return map[string]interface{}{parentDir: children}
}
