package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/devtools-sample/browser-harness/logging"
)

// State is a step of a Driver run.
type State int

const (
	Idle State = iota
	ServerStarting
	BrowserLaunching
	PageNavigating
	ResultPolling
	Closing
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ServerStarting:
		return "server starting"
	case BrowserLaunching:
		return "browser launching"
	case PageNavigating:
		return "page navigating"
	case ResultPolling:
		return "result polling"
	case Closing:
		return "closing"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DriverOptions are the optional collaborators of a Driver. Zero values are replaced with
// defaults: discarded logs and os.Stdout for console output.
type DriverOptions struct {
	// Logger receives progress messages.
	Logger logging.Logger

	// ErrorLogger receives the diagnostic for an infrastructure failure.
	ErrorLogger logging.Logger

	// ConsoleOutput receives console messages forwarded from the page.
	ConsoleOutput io.Writer

	// Routes are extra handlers mounted on the static server at exact paths.
	Routes map[string]http.Handler

	// OnStateChange is called on every state transition.
	OnStateChange func(State)
}

// Driver performs a single headless test run.
type Driver struct {
	config        RunConfiguration
	engine        Engine
	logger        logging.Logger
	errorLogger   logging.Logger
	consoleOutput io.Writer
	routes        map[string]http.Handler
	onStateChange func(State)
	state         State
}

// resources acquired during a run, released in reverse order of acquisition.
type resources struct {
	server    *StaticServer
	session   Session
	forwarder *ConsoleForwarder
}

func NewDriver(config RunConfiguration, engine Engine, options DriverOptions) *Driver {
	d := &Driver{
		config:        config,
		engine:        engine,
		logger:        options.Logger,
		errorLogger:   options.ErrorLogger,
		consoleOutput: options.ConsoleOutput,
		routes:        options.Routes,
		onStateChange: options.OnStateChange,
	}
	if d.logger == nil {
		d.logger = logging.NullLogger()
	}
	if d.errorLogger == nil {
		d.errorLogger = logging.NullLogger()
	}
	if d.consoleOutput == nil {
		d.consoleOutput = os.Stdout
	}
	return d
}

// State returns the current state. After Run returns it is always Terminated.
func (d *Driver) State() State {
	return d.state
}

// Run performs the test run and returns its outcome. It can only be called once.
func (d *Driver) Run(ctx context.Context) RunOutcome {
	if d.state != Idle {
		return RunOutcome{Code: ExitUsageError, Err: errors.New("driver has already run")}
	}
	if err := d.config.Validate(); err != nil {
		return d.terminate(d.fail(ExitUsageError, err))
	}

	var res resources
	outcome := d.execute(ctx, &res)

	d.transition(Closing)
	d.release(&res)
	return d.terminate(outcome)
}

func (d *Driver) execute(ctx context.Context, res *resources) RunOutcome {
	d.transition(ServerStarting)
	server, err := StartStaticServer(d.config.Host, d.config.Port, d.config.RootDirectory, d.routes)
	if err != nil {
		if IsBindError(err) {
			err = fmt.Errorf("could not bind %s:%d: %w", d.config.Host, d.config.Port, err)
		} else {
			err = fmt.Errorf("could not start server: %w", err)
		}
		return d.fail(ExitServerFailure, err)
	}
	res.server = server
	d.logger.Printf("Server running at %s/", server.BaseURL())

	d.transition(BrowserLaunching)
	if d.engine == nil {
		return d.fail(ExitBrowserFailure, errors.New("no browser engine configured"))
	}
	session, err := d.engine.Launch(ctx)
	if err != nil {
		return d.fail(ExitBrowserFailure, fmt.Errorf("could not launch browser: %w", err))
	}
	res.session = session
	if version, err := session.Version(ctx); err == nil {
		d.logger.Printf("Browser version: %s", version)
	}
	res.forwarder = NewConsoleForwarder(ctx, d.consoleOutput, d.config.VerboseConsoleForwarding,
		d.config.NavigationTimeout)
	session.OnConsole(res.forwarder.Accept)

	d.transition(PageNavigating)
	url := server.BaseURL() + "/" + strings.TrimPrefix(d.config.TargetPage, "/")
	d.logger.Printf("Navigating to: %s", url)
	navCtx, cancel := context.WithTimeout(ctx, d.config.NavigationTimeout)
	err = session.Navigate(navCtx, url)
	cancel()
	if err != nil {
		return d.fail(ExitNavigationFailure, fmt.Errorf("failed to open %s: %w", url, err))
	}

	d.transition(ResultPolling)
	evalCtx, cancel := context.WithTimeout(ctx, d.config.NavigationTimeout)
	value, err := session.Evaluate(evalCtx, FailureIndicatorExpression(d.config.FailureGlobal))
	cancel()
	if err != nil {
		return d.fail(ExitEvaluationFailure, fmt.Errorf("could not read window[%q] from %s: %w",
			d.config.FailureGlobal, url, err))
	}
	if d.config.VerboseConsoleForwarding {
		d.logger.Printf("Failure indicator %s = %s", d.config.FailureGlobal, value.JSONString())
	}

	if Truthy(value) {
		return RunOutcome{Code: ExitTestFailure}
	}
	return RunOutcome{Code: ExitSuccess}
}

func (d *Driver) release(res *resources) {
	if res.forwarder != nil {
		res.forwarder.Flush()
	}
	if res.session != nil {
		if err := res.session.Close(); err != nil {
			d.errorLogger.Printf("Error closing browser: %s", err)
		}
	}
	if res.server != nil {
		if err := res.server.Close(); err != nil {
			d.errorLogger.Printf("Error closing server: %s", err)
		}
	}
}

func (d *Driver) fail(code int, err error) RunOutcome {
	d.errorLogger.Printf("%s", err)
	return RunOutcome{Code: code, Err: &RunError{State: d.state, Code: code, Err: err}}
}

func (d *Driver) transition(s State) {
	d.state = s
	if d.onStateChange != nil {
		d.onStateChange(s)
	}
}

func (d *Driver) terminate(outcome RunOutcome) RunOutcome {
	d.transition(Terminated)
	return outcome
}
