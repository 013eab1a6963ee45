// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graph is a thin read-side wrapper over the store's recursive
// traversals.
package graph

import (
	"context"
	"fmt"

	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/store"
)

// Node is one row of a traversal result: an identity plus its depth and the
// reference type of the edge that reached it. Downstream nodes may carry a
// zero ID with TargetFilePath/TargetSymbolName populated instead, when the
// edge's target never resolved to a symbol in this repository.
type Node struct {
	ID               string
	Name             string
	QualifiedName    string
	Kind             model.SymbolKind
	Signature        string
	Depth            int
	ReferenceType    model.ReferenceType
	TargetFilePath   string
	TargetSymbolName string
}

// SymbolContext is the combined upstream+downstream view of one symbol.
type SymbolContext struct {
	Root       *model.Symbol
	Upstream   []Node
	Downstream []Node
}

// Service exposes the graph operations over a store.
type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Downstream returns what rootSymbolID calls, transitively, to maxDepth
// hops, distinct by (id, depth). Callers at the CLI/HTTP boundary are
// responsible for bounding maxDepth to whatever range they advertise;
// this layer passes it through to the store unclamped so callers that
// need a wider band (e.g. flow synthesis) are not silently truncated.
func (s *Service) Downstream(ctx context.Context, rootSymbolID string, maxDepth int) ([]Node, error) {
	rows, err := s.store.Reference.Downstream(ctx, rootSymbolID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("graph: downstream of %s: %w", rootSymbolID, err)
	}
	out := make([]Node, len(rows))
	for i, r := range rows {
		out[i] = Node{
			ID: r.SymbolID, Name: r.Name, QualifiedName: r.QualifiedName, Kind: r.Kind,
			Signature: r.Signature, Depth: r.Depth, ReferenceType: r.ReferenceType,
			TargetFilePath: r.TargetFilePath, TargetSymbolName: r.TargetSymbolName,
		}
	}
	return out, nil
}

// Upstream returns what transitively calls rootSymbolID, to maxDepth hops.
func (s *Service) Upstream(ctx context.Context, rootSymbolID string, maxDepth int) ([]Node, error) {
	rows, err := s.store.Reference.Upstream(ctx, rootSymbolID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("graph: upstream of %s: %w", rootSymbolID, err)
	}
	out := make([]Node, len(rows))
	for i, r := range rows {
		out[i] = Node{
			ID: r.SymbolID, Name: r.Name, QualifiedName: r.QualifiedName, Kind: r.Kind,
			Signature: r.Signature, Depth: r.Depth, ReferenceType: r.ReferenceType,
		}
	}
	return out, nil
}

// SymbolContext fetches the root symbol plus both directions independently
// depth-bounded.
func (s *Service) SymbolContext(ctx context.Context, symbolID string, upstreamDepth, downstreamDepth int) (*SymbolContext, error) {
	root, err := s.store.Symbol.Get(ctx, symbolID)
	if err != nil {
		return nil, fmt.Errorf("graph: loading root symbol %s: %w", symbolID, err)
	}
	up, err := s.Upstream(ctx, symbolID, upstreamDepth)
	if err != nil {
		return nil, err
	}
	down, err := s.Downstream(ctx, symbolID, downstreamDepth)
	if err != nil {
		return nil, err
	}
	return &SymbolContext{Root: root, Upstream: up, Downstream: down}, nil
}
