package framework

import (
	"context"
	"fmt"
	"math"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Engine launches browser sessions.
type Engine interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one launched headless browser with a single page.
type Session interface {
	// Version describes the browser, for diagnostic output.
	Version(ctx context.Context) (string, error)

	// OnConsole registers a handler for console messages from the page. It must be called
	// before Navigate. The handler is called in the order the page emitted the messages, and
	// must not block.
	OnConsole(handler func(ConsoleMessage))

	// Navigate loads url and waits for the load to finish. A network error, a timeout from
	// ctx, or an HTTP error status for the document are all errors.
	Navigate(ctx context.Context, url string) error

	// Evaluate evaluates a JavaScript expression in the page and returns its value. An
	// undefined result is returned as a null value. Console messages the page emitted before
	// the evaluation have all been passed to the OnConsole handler by the time it returns.
	Evaluate(ctx context.Context, expression string) (ldvalue.Value, error)

	// Close shuts down the browser.
	Close() error
}

// HTTPStatusError is returned by Session.Navigate when the page itself loaded with an
// error status.
type HTTPStatusError struct {
	Status int
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("page returned HTTP status %d", e.Status)
}

// FailureIndicatorExpression returns the expression that reads the named global from window.
func FailureIndicatorExpression(global string) string {
	return "window[" + ldvalue.String(global).JSONString() + "]"
}

// Truthy applies JavaScript truthiness to a value read from the page.
func Truthy(v ldvalue.Value) bool {
	switch v.Type() {
	case ldvalue.NullType:
		return false
	case ldvalue.BoolType:
		return v.BoolValue()
	case ldvalue.NumberType:
		f := v.Float64Value()
		return f != 0 && !math.IsNaN(f)
	case ldvalue.StringType:
		return v.StringValue() != ""
	default:
		return true
	}
}

// UnserializableValue converts a primitive the DevTools protocol cannot send as JSON ("NaN",
// "Infinity", "-Infinity", "-0" or a BigInt literal such as "12n") to a value with the same
// truthiness.
func UnserializableValue(s string) ldvalue.Value {
	switch s {
	case "", "NaN":
		return ldvalue.Null()
	case "-0", "0n", "-0n":
		return ldvalue.Int(0)
	default:
		return ldvalue.String(s)
	}
}
