package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtools-sample/browser-harness/framework"
)

const testDeps = `goog.addDependency("../devtools_sample/tests/zeta.js", [], []);
goog.addDependency("../devtools_sample/core.js", [], []);
goog.addDependency("../devtools_sample/tests/alpha_beta.js", [], []);
`

func makeRoot(t *testing.T) string {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "test.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "deps.js"), []byte(testDeps), 0o644))
	return root
}

func runHarness(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), append([]string{"harness"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunWithoutArgumentsIsUsageError(t *testing.T) {
	code, _, errOut := runHarness()
	assert.Equal(t, framework.ExitUsageError, code)
	assert.Contains(t, errOut, "root directory is required")
	assert.Contains(t, errOut, "Usage:")
}

func TestRunWithoutPageIsUsageError(t *testing.T) {
	code, _, errOut := runHarness(makeRoot(t))
	assert.Equal(t, framework.ExitUsageError, code)
	assert.Contains(t, errOut, "target page is required")
}

func TestRunListsSuitesSorted(t *testing.T) {
	code, out, _ := runHarness("-list", "-deps", "deps.js", makeRoot(t))
	assert.Equal(t, framework.ExitSuccess, code)
	assert.Equal(t, "alpha-beta\nzeta\n", out)
}

func TestRunListAppliesFilters(t *testing.T) {
	code, out, _ := runHarness("-list", "-deps", "deps.js", "-skip", "^zeta$", makeRoot(t))
	assert.Equal(t, framework.ExitSuccess, code)
	assert.Equal(t, "alpha-beta\n", out)
}

func TestRunListWithoutDepsFileListsNothing(t *testing.T) {
	code, out, _ := runHarness("-list", makeRoot(t))
	assert.Equal(t, framework.ExitSuccess, code)
	assert.Equal(t, "", out)
}

func TestRunServerBindFailureIsNotTestFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	code, _, errOut := runHarness("-port", itoa(port), "-timeout", (time.Second).String(), makeRoot(t), "test.html")
	assert.Equal(t, framework.ExitServerFailure, code)
	assert.NotEqual(t, framework.ExitTestFailure, code)
	assert.Contains(t, errOut, "could not bind")
	assert.Contains(t, errOut, "To rerun: harness -port")
}

func TestSuggestRerun(t *testing.T) {
	navigation := framework.RunOutcome{Code: framework.ExitNavigationFailure,
		Err: &framework.RunError{State: framework.PageNavigating, Code: framework.ExitNavigationFailure, Err: errors.New("timeout")}}
	usage := framework.RunOutcome{Code: framework.ExitUsageError,
		Err: &framework.RunError{State: framework.Idle, Code: framework.ExitUsageError, Err: framework.UsageError{Message: "bad"}}}

	assert.True(t, suggestRerun(navigation))
	assert.False(t, suggestRerun(usage))
	assert.False(t, suggestRerun(framework.RunOutcome{Code: framework.ExitTestFailure}))
}
