// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/parser"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkAdmitsRegisteredExtensionsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')")
	writeFile(t, root, "README.md", "# hello")

	reg := parser.NewRegistry()
	reg.Register(parser.NewPythonParser(), ".py")

	result, err := Walk(root, reg, Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "main.py", result.Files[0].RelativePath)
	assert.Equal(t, []string{"python"}, result.Languages)
}

func TestWalkPrunesSkipDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.py", "x = 1")
	writeFile(t, root, "node_modules/pkg/index.py", "x = 1")
	writeFile(t, root, ".git/hooks/pre-commit.py", "x = 1")

	reg := parser.NewRegistry()
	reg.Register(parser.NewPythonParser(), ".py")

	result, err := Walk(root, reg, Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "src/main.py", result.Files[0].RelativePath)
}

func TestWalkSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.py", "x = 1\n")

	reg := parser.NewRegistry()
	reg.Register(parser.NewPythonParser(), ".py")

	result, err := Walk(root, reg, Options{MaxFileSizeBytes: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestWalkSortsFilesLexicographically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "x = 1")
	writeFile(t, root, "a.py", "x = 1")

	reg := parser.NewRegistry()
	reg.Register(parser.NewPythonParser(), ".py")

	result, err := Walk(root, reg, Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "a.py", result.Files[0].RelativePath)
	assert.Equal(t, "b.py", result.Files[1].RelativePath)
}

func TestBuildRepoTreeNestsDirectories(t *testing.T) {
	files := []DiscoveredFile{
		{RelativePath: "src/app/main.py"},
		{RelativePath: "src/app/util.py"},
		{RelativePath: "README.md"},
	}

	tree, err := buildRepoTree(files)
	require.NoError(t, err)

	src, ok := tree["src"].(map[string]interface{})
	require.True(t, ok)
	app, ok := src["app"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, app, "main.py")
	assert.Contains(t, app, "util.py")
	assert.Contains(t, tree, "README.md")
}

func TestFolderStructureRootLevel(t *testing.T) {
	all := []DiscoveredFile{
		{RelativePath: "main.py"},
		{RelativePath: "util.py"},
		{RelativePath: "src/other.py"},
	}

	structure := FolderStructure("main.py", all)
	root, ok := structure["."].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, root, "main.py")
	assert.Contains(t, root, "util.py")
	assert.NotContains(t, root, "other.py")
}

func TestFolderStructureNestedLevel(t *testing.T) {
	all := []DiscoveredFile{
		{RelativePath: "src/app/main.py"},
		{RelativePath: "src/app/util.py"},
		{RelativePath: "src/other.py"},
	}

	structure := FolderStructure("src/app/main.py", all)
	dir, ok := structure["src/app"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, dir, "main.py")
	assert.Contains(t, dir, "util.py")
}
