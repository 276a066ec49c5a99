package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseline = `
paths:
  /feed:
    get:
      responses:
        "200": {}
        "400": {}
  /posts/{id}:
    get:
      responses:
        "200": {}
        "404": {}
    delete:
      responses:
        "204": {}
`

func TestCompare(t *testing.T) {
	base, err := parseSpec([]byte(baseline))
	require.NoError(t, err)

	rev, err := parseSpec([]byte(`{"paths": {"/posts/{id}": {"get": {"responses": {"200": {}}}}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"removed operation: DELETE /posts/{id}",
		"removed path: /feed",
		"removed response code: GET /posts/{id} -> 404",
	}, compare(base, rev))
	assert.Empty(t, compare(base, base))
}

func TestParseSpec_Invalid(t *testing.T) {
	_, err := parseSpec([]byte("info: {}"))
	assert.Error(t, err)
	_, err = parseSpec([]byte("paths: [1, 2]"))
	assert.Error(t, err)
}

func TestRun_AgainstCompiledDocs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseline), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-base", path}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "passed")

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
}
