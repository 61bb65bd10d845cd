package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color=off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const exprTree = "(expression (identifier 3) (plus 1 1))\n"

func TestPrintFormats(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "expr.tree", exprTree)

	out, err := runCLI(t, "print", path)
	require.NoError(t, err)
	assert.Equal(t, "(expression (identifier) (plus))\n", out)

	out, err = runCLI(t, "print", "--format=pretty", path)
	require.NoError(t, err)
	assert.Equal(t, "expression    [0..5)\n  identifier  [0..3)\n  plus        [4..5)\n", out)

	out, err = runCLI(t, "print", "--format=describe", path)
	require.NoError(t, err)
	assert.Equal(t, "(expression\n  (identifier 3)\n  (plus 1 1))\n", out)

	_, err = runCLI(t, "print", "--format=xml", path)
	require.Error(t, err)
}

func TestPrintWithStrictGrammar(t *testing.T) {
	dir := t.TempDir()
	grammar := writeFile(t, dir, "arith.toml", `
name = "arith"
[[symbol]]
name = "expression"
[[symbol]]
name = "identifier"
[[symbol]]
name = "plus"
hidden = true
`)
	good := writeFile(t, dir, "good.tree", exprTree)
	bad := writeFile(t, dir, "bad.tree", "(number 1)\n")

	out, err := runCLI(t, "--grammar", grammar, "--strict", "print", good)
	require.NoError(t, err)
	assert.Equal(t, "(expression (identifier))\n", out, "grammar marks plus hidden")

	_, err = runCLI(t, "--grammar", grammar, "--strict", "print", bad)
	require.Error(t, err)

	_, err = runCLI(t, "--strict", "print", good)
	require.Error(t, err, "strict mode needs a grammar")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tree", exprTree)
	writeFile(t, dir, "b.tree", "(ERROR 'x' 0 2)\n")

	out, err := runCLI(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+filepath.Join(dir, "a.tree")+" (1 trees)")
	assert.Contains(t, out, "ok   "+filepath.Join(dir, "b.tree"))

	writeFile(t, dir, "c.tree", "(broken")
	out, err = runCLI(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL "+filepath.Join(dir, "c.tree"))
}

func TestEqual(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tree", exprTree)
	b := writeFile(t, dir, "b.tree", "(expression (identifier 7 2) (plus 1 0))\n")
	c := writeFile(t, dir, "c.tree", "(expression (identifier 3) (identifier 1 1))\n")

	out, err := runCLI(t, "equal", a, a)
	require.NoError(t, err)
	assert.Equal(t, "equal\n", out)

	out, err = runCLI(t, "equal", a, b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "equal (extents differ"), out)

	out, err = runCLI(t, "equal", a, c)
	require.ErrorIs(t, err, errTreesDiffer)
	assert.Equal(t, "different\n", out)
}

func TestDumpAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "expr.tree", "(program (_wrap (expression (identifier 3) (plus 1 1))) (ERROR <EOF> 0 1))\n")
	snap := filepath.Join(dir, "expr.mp")

	_, err := runCLI(t, "dump", src, "-o", snap)
	require.NoError(t, err)

	out, err := runCLI(t, "load", snap)
	require.NoError(t, err)
	assert.Equal(t, "(program (expression (identifier) (plus)) (ERROR <EOF>))\n", out)

	out, err = runCLI(t, "load", "--format=describe", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "(_wrap\n")

	_, err = runCLI(t, "dump", src)
	require.Error(t, err, "output flag is required")
}

func TestIntern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tree", exprTree)
	writeFile(t, dir, "b.tree", exprTree)
	writeFile(t, dir, "c.tree", "(expression (identifier 5) (plus 1 1))\n")

	out, err := runCLI(t, "intern", dir)
	require.NoError(t, err)
	assert.Equal(t, "subtrees: 9\ndistinct: 5\nreusable ignoring extents: 2\n", out)
}

func TestVersionJSON(t *testing.T) {
	out, err := runCLI(t, "version", "--format=json")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "sprout", payload.Tool)
	assert.NotEmpty(t, payload.Version)
}

func TestTimings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "expr.tree", exprTree)

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--color=off", "--timings", "print", path})
	require.NoError(t, root.Execute())

	assert.Equal(t, "(expression (identifier) (plus))\n", out.String())
	summary := errOut.String()
	for _, phase := range []string{"timings:", "config", "load", "1 files", "render", "total"} {
		assert.Contains(t, summary, phase)
	}
	assert.Less(t, strings.Index(summary, "load"), strings.Index(summary, "render"))
}

func TestProfiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "expr.tree", exprTree)
	cpu := filepath.Join(dir, "cpu.out")
	mem := filepath.Join(dir, "mem.out")

	_, err := runCLI(t, "--cpu-profile", cpu, "--mem-profile", mem, "check", path)
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}

func TestFileCountAfterExpansion(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tree", exprTree)
	empty := t.TempDir()
	three := t.TempDir()
	for _, name := range []string{"x.tree", "y.tree", "z.tree"} {
		writeFile(t, three, name, exprTree)
	}
	snap := filepath.Join(dir, "x.mp")

	_, err := runCLI(t, "equal", a, empty)
	require.ErrorContains(t, err, "equal needs exactly two description files, got 1")

	_, err = runCLI(t, "equal", a, three)
	require.ErrorContains(t, err, "got 4")

	_, err = runCLI(t, "dump", "-o", snap, empty)
	require.ErrorContains(t, err, "dump needs exactly one description file, got 0")
	assert.NoFileExists(t, snap)

	_, err = runCLI(t, "dump", "-o", snap, three)
	require.ErrorContains(t, err, "got 3")
}
