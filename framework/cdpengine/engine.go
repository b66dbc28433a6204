// Package cdpengine runs the headless browser through chromedp, talking to Chrome over the
// DevTools protocol.
package cdpengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/devtools-sample/browser-harness/framework"
)

// Called with the console argument as this. Error objects are reduced to their message, the
// rest is returned by value.
const resolveArgFunction = `function() { return this instanceof Error ? this.message : this; }`

// Engine launches Chrome with chromedp's default headless options.
type Engine struct {
	// ExecPath overrides the browser executable. If empty, chromedp looks for Chrome itself.
	ExecPath string
}

func New(execPath string) *Engine {
	return &Engine{ExecPath: execPath}
}

func (e *Engine) Launch(ctx context.Context) (framework.Session, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if e.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}
	return &session{
		ctx:         browserCtx,
		allocCancel: allocCancel,
	}, nil
}

type session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
}

// withDeadline derives a context for one chromedp.Run call on the session's tab that is also
// cancelled when ctx is.
func (s *session) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *session) Version(ctx context.Context) (string, error) {
	runCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	var product string
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, p, _, _, _, err := browser.GetVersion().Do(ctx)
		product = p
		return err
	}))
	return product, err
}

func (s *session) OnConsole(handler func(framework.ConsoleMessage)) {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			handler(s.consoleMessage(e))
		}
	})
}

func (s *session) consoleMessage(e *runtime.EventConsoleAPICalled) framework.ConsoleMessage {
	args := e.Args
	texts := make([]string, 0, len(args))
	for _, a := range args {
		texts = append(texts, plainText(a))
	}
	return framework.ConsoleMessage{
		Level: string(e.Type),
		Text:  strings.Join(texts, " "),
		Resolve: func(ctx context.Context) ([]ldvalue.Value, error) {
			return s.resolveArgs(ctx, args)
		},
	}
}

// Listeners run on chromedp's event loop, so resolving arguments has to happen later from
// another goroutine; ConsoleForwarder takes care of that.
func (s *session) resolveArgs(ctx context.Context, args []*runtime.RemoteObject) ([]ldvalue.Value, error) {
	runCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	ret := make([]ldvalue.Value, 0, len(args))
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, a := range args {
			if a.ObjectID == "" {
				ret = append(ret, primitiveValue(a))
				continue
			}
			res, exc, err := runtime.CallFunctionOn(resolveArgFunction).
				WithObjectID(a.ObjectID).
				WithReturnByValue(true).
				Do(ctx)
			if err != nil || exc != nil || res == nil {
				ret = append(ret, ldvalue.String(plainText(a)))
				continue
			}
			ret = append(ret, primitiveValue(res))
		}
		return nil
	}))
	return ret, err
}

func (s *session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w (%s)", ctx.Err(), err)
		}
		return err
	}
	if resp != nil && resp.Status >= 400 {
		return framework.HTTPStatusError{Status: int(resp.Status)}
	}
	return nil
}

func (s *session) Evaluate(ctx context.Context, expression string) (ldvalue.Value, error) {
	runCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	var value ldvalue.Value
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.Evaluate(expression).WithReturnByValue(true).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("evaluation threw an exception: %s", exceptionText(exc))
		}
		value = primitiveValue(res)
		return nil
	}))
	return value, err
}

func (s *session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.allocCancel()
	return err
}

// primitiveValue converts a by-value remote object. Undefined becomes null.
func primitiveValue(o *runtime.RemoteObject) ldvalue.Value {
	switch {
	case o == nil || o.Type == runtime.TypeUndefined:
		return ldvalue.Null()
	case o.UnserializableValue != "":
		return framework.UnserializableValue(string(o.UnserializableValue))
	case len(o.Value) == 0:
		return ldvalue.Null()
	default:
		return ldvalue.Parse([]byte(o.Value))
	}
}

// plainText renders an argument without asking the browser for anything.
func plainText(o *runtime.RemoteObject) string {
	switch {
	case o.Type == runtime.TypeUndefined:
		return "undefined"
	case len(o.Value) > 0:
		v := ldvalue.Parse([]byte(o.Value))
		if v.Type() == ldvalue.StringType {
			return v.StringValue()
		}
		return v.JSONString()
	case o.UnserializableValue != "":
		return string(o.UnserializableValue)
	case o.Description != "":
		return o.Description
	default:
		return string(o.Type)
	}
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}
