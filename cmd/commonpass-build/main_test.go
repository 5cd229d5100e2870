package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cperrors "github.com/tamirms/commonpass/errors"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunBuildsDataset(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.txt", "password\npassword\n")
	b := writeSource(t, dir, "b.txt", "hunter2,5\n")
	out := filepath.Join(dir, "datasets")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-out", out, "-version", "v20250101.1", "-source", a, b}, map[string]string{}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var got summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "v20250101.1", got.Version)
	assert.Equal(t, filepath.Join(out, "v20250101.1"), got.Out)
	assert.Equal(t, 2, got.Counts.Tiny)
	assert.Equal(t, 2, got.Counts.Full)

	for _, name := range []string{"common_tiny.bf", "common_full.txt", "common_small.json.gz", "metadata.json"} {
		assert.FileExists(t, filepath.Join(out, "v20250101.1", name))
	}
	txt, err := os.ReadFile(filepath.Join(out, "v20250101.1", "common_tiny.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2\npassword\n", string(txt))
}

func TestRunVersionFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", "password\n")
	out := filepath.Join(dir, "datasets")

	var stdout, stderr bytes.Buffer
	env := map[string]string{"COMMONPASS_VERSION": "20250301.2"}
	require.NoError(t, run(context.Background(), []string{"-out", out, src}, env, &stdout, &stderr))
	assert.DirExists(t, filepath.Join(out, "20250301.2"))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", "password\n")
	out := filepath.Join(dir, "datasets")
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	err := run(ctx, []string{"-out", out}, map[string]string{}, &stdout, &stderr)
	assert.ErrorContains(t, err, "no sources")

	err = run(ctx, []string{"-out", out, "-version", "latest", src}, map[string]string{}, &stdout, &stderr)
	assert.ErrorIs(t, err, cperrors.ErrInvalidVersion)

	err = run(ctx, []string{"-out", out, "-fpr", "1.5", src}, map[string]string{}, &stdout, &stderr)
	assert.ErrorIs(t, err, cperrors.ErrInvalidFPR)

	err = run(ctx, []string{"-out", out, filepath.Join(dir, "missing.txt")}, map[string]string{}, &stdout, &stderr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = run(ctx, []string{"-bogus"}, map[string]string{}, &stdout, &stderr)
	assert.Error(t, err)

	assert.Empty(t, stdout.String())
}
