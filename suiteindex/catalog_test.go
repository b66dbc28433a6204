package suiteindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeps = `goog.addDependency("base.js", ['goog'], []);
goog.addDependency("../cljs/core.js", ['cljs.core'], ['goog.string']);
goog.addDependency("../devtools_sample/tests/foo_bar.js", ['devtools_sample.tests.foo_bar'], ['cljs.core']);
goog.addDependency('../devtools_sample/tests/baz.js', ['devtools_sample.tests.baz'], ['cljs.core'], {'lang': 'es6'});
goog.addDependency("../cljs/core.js", ['cljs.core'], ['goog.string']);
`

func TestParseDepsKeepsFirstOccurrenceOrder(t *testing.T) {
	catalog := ParseDeps([]byte(sampleDeps))
	assert.Equal(t, []string{
		"base.js",
		"../cljs/core.js",
		"../devtools_sample/tests/foo_bar.js",
		"../devtools_sample/tests/baz.js",
	}, catalog.ListDeclaredPaths())
}

func TestParseDepsWithoutDeclarations(t *testing.T) {
	assert.Empty(t, ParseDeps([]byte("var x = 1;")))
}

func TestLoadDepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.js")
	require.NoError(t, os.WriteFile(path, []byte(sampleDeps), 0o644))

	catalog, err := LoadDepsFile(path)
	require.NoError(t, err)
	assert.Len(t, catalog, 4)
}

func TestLoadDepsFileMissing(t *testing.T) {
	_, err := LoadDepsFile(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestDepsFileLoaderWithEmptyPathIsDisabled(t *testing.T) {
	catalog, err := DepsFileLoader("")()
	assert.NoError(t, err)
	assert.Nil(t, catalog)
}
