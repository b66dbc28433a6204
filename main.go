package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/fatih/color"

	"github.com/devtools-sample/browser-harness/framework"
	"github.com/devtools-sample/browser-harness/framework/cdpengine"
	"github.com/devtools-sample/browser-harness/framework/rodengine"
	"github.com/devtools-sample/browser-harness/logging"
	"github.com/devtools-sample/browser-harness/suiteindex"
)

const logPrefix = "[harness]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run performs one harness invocation and returns the process exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	var params commandParams
	if !params.Read(args, errOut) {
		return framework.ExitUsageError
	}
	config := params.config

	logger := logging.NewConsoleLogger(out, logPrefix, color.FgCyan)
	errLogger := logging.NewConsoleLogger(errOut, logPrefix, color.FgRed, color.Bold)

	if params.list {
		return listSuites(config, params.filters, out, errLogger)
	}

	routes := map[string]http.Handler{}
	if config.DepsFile != "" && config.IndexPath != "" {
		pattern, _ := config.CompileSuitePattern() // already validated
		loader := suiteindex.DepsFileLoader(filepath.Join(config.RootDirectory, config.DepsFile))
		routes[config.IndexPath] = suiteindex.Handler(loader, params.runnerURL(), pattern, errLogger)
	}

	driver := framework.NewDriver(config, newEngine(config), framework.DriverOptions{
		Logger:        logger,
		ErrorLogger:   errLogger,
		ConsoleOutput: out,
		Routes:        routes,
	})
	outcome := driver.Run(ctx)

	if suggestRerun(outcome) {
		var cmd commandBuilder
		cmd.add(args...)
		errLogger.Printf("To rerun: %s", cmd)
	}
	return outcome.Code
}

// suggestRerun reports whether the run failed for a reason other than how the harness was
// invoked. Navigation failures share an exit code with usage errors, so the error is checked.
func suggestRerun(outcome framework.RunOutcome) bool {
	var usageErr framework.UsageError
	return outcome.Err != nil && !errors.As(outcome.Err, &usageErr)
}

func newEngine(config framework.RunConfiguration) framework.Engine {
	switch config.Engine {
	case framework.EngineRod:
		return rodengine.New(config.BrowserPath)
	default:
		return cdpengine.New(config.BrowserPath)
	}
}

func listSuites(config framework.RunConfiguration, filters suiteindex.RegexFilters, out io.Writer, errLogger logging.Logger) int {
	var catalog suiteindex.DependencyCatalog
	if config.DepsFile != "" {
		c, err := suiteindex.LoadDepsFile(filepath.Join(config.RootDirectory, config.DepsFile))
		if err != nil {
			errLogger.Printf("%s", err)
			return framework.ExitUsageError
		}
		catalog = c
	}
	pattern, _ := config.CompileSuitePattern()
	var tasks []string
	if pattern == nil {
		tasks = suiteindex.BuildIndex(catalog, suiteindex.DefaultPattern())
	} else {
		tasks = suiteindex.BuildIndex(catalog, pattern)
	}
	sort.Strings(tasks)
	for _, t := range filters.Apply(tasks) {
		fmt.Fprintln(out, t)
	}
	return framework.ExitSuccess
}
