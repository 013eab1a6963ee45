// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/model"
)

func TestSliceLinesWithinRange(t *testing.T) {
	source := "line1\nline2\nline3\nline4"
	assert.Equal(t, "line2\nline3", sliceLines(source, 2, 3))
}

func TestSliceLinesClampsEnd(t *testing.T) {
	source := "line1\nline2\nline3"
	assert.Equal(t, "line2\nline3", sliceLines(source, 2, 100))
}

func TestSliceLinesClampsStart(t *testing.T) {
	source := "line1\nline2\nline3"
	assert.Equal(t, "line1\nline2", sliceLines(source, -5, 2))
}

func TestSliceLinesStartBeyondEndFallsBackToSource(t *testing.T) {
	source := "line1\nline2"
	assert.Equal(t, source, sliceLines(source, 10, 1))
}

func TestFindNodeByQualifiedName(t *testing.T) {
	band := []nodeWithCode{
		{Name: "handle", QualifiedName: "pkg.Service.handle", FilePath: "svc.py"},
		{Name: "helper", QualifiedName: "pkg.helper", FilePath: "util.py"},
	}
	ref := snippetRefAI{QualifiedName: "pkg.helper"}
	got := findNode(band, ref)
	require.NotNil(t, got)
	assert.Equal(t, "helper", got.Name)
}

func TestFindNodeByNameAndFilePath(t *testing.T) {
	band := []nodeWithCode{
		{Name: "run", FilePath: "a.py"},
		{Name: "run", FilePath: "b.py"},
	}
	ref := snippetRefAI{SymbolName: "run", FilePath: "b.py"}
	got := findNode(band, ref)
	require.NotNil(t, got)
	assert.Equal(t, "b.py", got.FilePath)
}

func TestFindNodeByNameAnywhereInBand(t *testing.T) {
	band := []nodeWithCode{
		{Name: "run", FilePath: "a.py"},
	}
	ref := snippetRefAI{SymbolName: "run", FilePath: "other.py"}
	got := findNode(band, ref)
	require.NotNil(t, got)
	assert.Equal(t, "a.py", got.FilePath)
}

func TestFindNodeNoMatch(t *testing.T) {
	band := []nodeWithCode{{Name: "run", FilePath: "a.py"}}
	ref := snippetRefAI{SymbolName: "missing"}
	assert.Nil(t, findNode(band, ref))
}

func TestResolveSnippetsDropsUnresolvedRefs(t *testing.T) {
	band := []nodeWithCode{
		{Name: "handle", QualifiedName: "pkg.handle", FilePath: "svc.py", SourceCode: "def handle():\n    pass"},
	}
	steps := []flowStepAI{
		{
			StepNumber:  1,
			Title:       "Handle request",
			Description: "entry",
			ImportantCodeSnippets: []snippetRefAI{
				{QualifiedName: "pkg.handle"},
				{QualifiedName: "pkg.unknown"},
			},
		},
	}

	out := resolveSnippets(steps, band)
	require.Len(t, out, 1)
	require.Len(t, out[0].ImportantCodeSnippets, 1)
	assert.Equal(t, "pkg.handle", out[0].ImportantCodeSnippets[0].QualifiedName)
}

func TestResolveSnippetsSlicesLineRange(t *testing.T) {
	band := []nodeWithCode{
		{Name: "handle", QualifiedName: "pkg.handle", FilePath: "svc.py", SourceCode: "line1\nline2\nline3"},
	}
	steps := []flowStepAI{
		{
			StepNumber: 1,
			ImportantCodeSnippets: []snippetRefAI{
				{QualifiedName: "pkg.handle", LineRange: &model.LineRange{Start: 2, End: 3}},
			},
		},
	}

	out := resolveSnippets(steps, band)
	require.Len(t, out, 1)
	require.Len(t, out[0].ImportantCodeSnippets, 1)
	assert.Equal(t, "line2\nline3", out[0].ImportantCodeSnippets[0].Code)
}

func TestResolveSnippetsFallsBackToSnippetFilePath(t *testing.T) {
	band := []nodeWithCode{
		{Name: "handle", QualifiedName: "pkg.handle", FilePath: "svc.py", SourceCode: "code"},
	}
	steps := []flowStepAI{
		{
			StepNumber: 1,
			ImportantCodeSnippets: []snippetRefAI{
				{QualifiedName: "pkg.handle", FilePath: "svc.py"},
			},
		},
	}

	out := resolveSnippets(steps, band)
	require.Len(t, out, 1)
	assert.Equal(t, "svc.py", out[0].FilePath)
}
