// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree parses source with the given tree-sitter language and returns the
// root node, or nil and false if the grammar itself could not run (distinct
// from a syntax error in the source, which HasError() reports but still
// yields a usable, partial tree).
func parseTree(source []byte, lang *sitter.Language) (*sitter.Node, bool) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, false
	}
	root := tree.RootNode()
	if root == nil {
		return nil, false
	}
	return root, true
}

// nodeText returns node's source text, or "" for a nil node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(source)
}

// childByField is a small nil-safe wrapper over sitter.Node.ChildByFieldName.
func childByField(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(field)
}

// lineRange returns the 1-indexed inclusive start/end line for node.
func lineRange(node *sitter.Node) (int, int) {
	start := int(node.StartPoint().Row) + 1
	end := int(node.EndPoint().Row) + 1
	return start, end
}

// colRange returns the 0-indexed start/end column for node.
func colRange(node *sitter.Node) (int, int) {
	return int(node.StartPoint().Column), int(node.EndPoint().Column)
}

// intPtr is a small helper for populating the model's *int position fields.
func intPtr(v int) *int { return &v }
