// Package framework contains the implementation of the headless browser test run.
//
// The general model is:
//
// 1. The harness serves a directory of built application files over a local HTTP listener.
//
// 2. A browser Engine launches a headless browser Session, which loads the test-runner page
// from that listener. Console output from the page is forwarded to the harness's own output
// in the order the page emitted it.
//
// 3. Once the page has loaded, the harness reads a page-global failure indicator that the
// application sets when any test fails, and converts it into a RunOutcome whose Code is the
// process exit status.
//
// The Driver sequences these steps and guarantees that whatever it acquired along the way
// (listener, browser) is released before it returns, whichever way the run ends. It never
// exits the process itself; that is left to the caller.
package framework
