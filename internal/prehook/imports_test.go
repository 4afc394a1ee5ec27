package prehook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const studentTests = `use context essentials2021
import my-gdrive("hw1-code.arr") as C
import my-gdrive('hw1-common.arr') as M
import shared-gdrive("support.arr",
  "1AbCdEf") as S
import gdrive-js("helpers.js", "xyz") as H

check: C.sum([list: 1, 2]) is 3 end
`

type tree struct {
	root    string
	stencil string
	subDir  string
	code    string
	target  string
}

func setupTree(t *testing.T) tree {
	t.Helper()
	root := t.TempDir()
	tr := tree{
		root:    root,
		stencil: filepath.Join(root, "source", "stencil"),
		subDir:  filepath.Join(root, "submission"),
		code:    filepath.Join(root, "submission", "code.arr"),
		target:  filepath.Join(root, "results", "job1", "tests.arr"),
	}
	require.NoError(t, os.MkdirAll(tr.stencil, 0o755))
	require.NoError(t, os.MkdirAll(tr.subDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(tr.target), 0o755))
	require.NoError(t, os.WriteFile(tr.target, []byte(studentTests), 0o644))
	return tr
}

func TestFixFileRewritesAllImports(t *testing.T) {
	tr := setupTree(t)

	err := FixFile(tr.target, Options{
		StencilDir: tr.stencil,
		CodePath:   tr.code,
		CommonDir:  tr.subDir,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(tr.target)
	require.NoError(t, err)
	require.Equal(t, `use context essentials2021
import file("../../submission/code.arr") as C
import file("../../submission/hw1-common.arr") as M
import file("../../source/stencil/support.arr") as S
import file("../../source/stencil/helpers.arr") as H

check: C.sum([list: 1, 2]) is 3 end
`, string(data))
}

func TestFixImportKeepsFileUntilFinalize(t *testing.T) {
	tr := setupTree(t)

	fixer, err := NewImportFixer(tr.target, tr.stencil)
	require.NoError(t, err)
	require.NoError(t, fixer.FixImport("common", tr.subDir, ""))
	require.Contains(t, fixer.Content(), `import file("../../submission/hw1-common.arr") as M`)
	require.Contains(t, fixer.Content(), `my-gdrive("hw1-code.arr")`)

	onDisk, err := os.ReadFile(tr.target)
	require.NoError(t, err)
	require.Equal(t, studentTests, string(onDisk))
}

func TestFixImportOnlyTouchesNamedImport(t *testing.T) {
	tr := setupTree(t)

	fixer, err := NewImportFixer(tr.target, tr.stencil)
	require.NoError(t, err)
	require.NoError(t, fixer.FixImport("tests", tr.subDir, ""))
	require.Equal(t, studentTests, fixer.Content())

	require.ErrorIs(t, fixer.FixImport("", tr.subDir, ""), ErrEmptyName)
}

func TestFixImportSameDirectory(t *testing.T) {
	tr := setupTree(t)

	fixer, err := NewImportFixer(tr.target, tr.stencil)
	require.NoError(t, err)
	require.NoError(t, fixer.FixImport("code", filepath.Dir(tr.target), "tests.arr"))
	require.Contains(t, fixer.Content(), `import file("./tests.arr") as C`)
}

func TestNewImportFixerMissingFile(t *testing.T) {
	_, err := NewImportFixer(filepath.Join(t.TempDir(), "absent.arr"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
