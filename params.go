package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/devtools-sample/browser-harness/framework"
	"github.com/devtools-sample/browser-harness/suiteindex"
)

const usageText = `Usage: %s [options] <root-dir> <page>

Serves <root-dir> over HTTP, opens <page> (a path relative to <root-dir>, which may include a
query string) in a headless browser, and exits with 0 if window["test-failures"] is falsy
once the page has loaded, or 100 if it is truthy. Any other exit code means the harness
itself could not complete the run.

With -list, only <root-dir> is needed: the test namespaces declared in the -deps file are
printed and no browser is started.

Options:
`

type commandParams struct {
	config     framework.RunConfiguration
	configFile string
	list       bool
	filters    suiteindex.RegexFilters
}

func (c *commandParams) flagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintf(errOut, usageText, name)
		fs.PrintDefaults()
	}
	fs.StringVar(&c.configFile, "config", c.configFile, "YAML file with default settings; options given on the command line take precedence")
	fs.StringVar(&c.config.Host, "host", c.config.Host, "address the file server listens on")
	fs.IntVar(&c.config.Port, "port", c.config.Port, "port the file server listens on")
	fs.DurationVar(&c.config.NavigationTimeout, "timeout", c.config.NavigationTimeout, "how long to wait for the page to load")
	fs.BoolVar(&c.config.VerboseConsoleForwarding, "verbose", c.config.VerboseConsoleForwarding, "resolve console arguments in the page and show console levels")
	fs.StringVar(&c.config.Engine, "engine", c.config.Engine, "browser automation engine: chromedp or rod")
	fs.StringVar(&c.config.BrowserPath, "browser", c.config.BrowserPath, "browser executable (default: let the engine find one)")
	fs.StringVar(&c.config.FailureGlobal, "failure-global", c.config.FailureGlobal, "page global that is truthy when tests failed")
	fs.StringVar(&c.config.DepsFile, "deps", c.config.DepsFile, "Closure deps file, relative to <root-dir>, used to discover test suites")
	fs.StringVar(&c.config.SuitePattern, "suite-pattern", c.config.SuitePattern, "regex selecting test suite paths in the deps file; group 1 is the suite path")
	fs.StringVar(&c.config.IndexPath, "index-path", c.config.IndexPath, "URL path of the suite index page (requires -deps)")
	fs.StringVar(&c.config.RunnerPage, "runner", c.config.RunnerPage, "test runner URL used by suite index links (default: <page> without its query)")
	fs.BoolVar(&c.list, "list", c.list, "print discovered test namespaces and exit")
	fs.Var(&c.filters.MustMatch, "run", "with -list, regex pattern(s) selecting namespaces to print")
	fs.Var(&c.filters.MustNotMatch, "skip", "with -list, regex pattern(s) selecting namespaces not to print")
	return fs
}

// Read parses the command line. It returns false, after writing an explanation to errOut,
// if the arguments are unusable.
func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	c.config = framework.DefaultRunConfiguration()
	c.filters = suiteindex.RegexFilters{}

	// A first pass only looks for -config, so that the file's settings can sit underneath
	// whatever else is on the command line.
	scratch := *c
	if err := scratch.flagSet(args[0], io.Discard).Parse(args[1:]); err == nil && scratch.configFile != "" {
		loaded, err := framework.LoadConfigFile(scratch.configFile, c.config)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return false
		}
		c.config = loaded
	}

	fs := c.flagSet(args[0], errOut)
	if err := fs.Parse(args[1:]); err != nil {
		return false
	}

	positional := fs.Args()
	maxArgs := 2
	if c.list {
		maxArgs = 1
	}
	if len(positional) > maxArgs {
		fmt.Fprintf(errOut, "unexpected arguments: %s\n", strings.Join(positional[maxArgs:], " "))
		fs.Usage()
		return false
	}
	if len(positional) > 0 {
		c.config.RootDirectory = positional[0]
	}
	if len(positional) > 1 {
		c.config.TargetPage = positional[1]
	}

	var err error
	if c.list {
		err = c.config.ValidateRoot()
		if err == nil {
			_, err = c.config.CompileSuitePattern()
		}
	} else {
		err = c.config.Validate()
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		fs.Usage()
		return false
	}
	return true
}

// runnerURL is the page that suite index links point at.
func (c *commandParams) runnerURL() string {
	if c.config.RunnerPage != "" {
		return c.config.RunnerPage
	}
	page := c.config.TargetPage
	if i := strings.IndexAny(page, "?#"); i >= 0 {
		page = page[:i]
	}
	return "/" + strings.TrimPrefix(page, "/")
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
