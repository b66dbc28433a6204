// Package rodengine runs the headless browser through go-rod.
package rodengine

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/devtools-sample/browser-harness/framework"
)

const resolveArgFunction = `function() { return this instanceof Error ? this.message : this; }`

// Prefix of the console.debug markers written by drainConsole. They are never forwarded.
const consoleSyncPrefix = "\x00browser-harness-console-sync:"

// Engine launches a headless browser with rod's launcher, which downloads Chromium if no
// browser is found and BrowserPath is empty.
type Engine struct {
	BrowserPath string
}

func New(browserPath string) *Engine {
	return &Engine{BrowserPath: browserPath}
}

func (e *Engine) Launch(ctx context.Context) (framework.Session, error) {
	l := launcher.New().Context(ctx).Headless(true)
	if e.BrowserPath != "" {
		l = l.Bin(e.BrowserPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, err
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	return &session{launcher: l, browser: b, page: page}, nil
}

type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	lock        sync.Mutex
	handler     func(framework.ConsoleMessage)
	syncSeq     int
	pendingSync map[string]chan struct{}
}

func (s *session) Version(ctx context.Context) (string, error) {
	v, err := s.browser.Context(ctx).Version()
	if err != nil {
		return "", err
	}
	return v.Product, nil
}

func (s *session) OnConsole(handler func(framework.ConsoleMessage)) {
	s.lock.Lock()
	s.handler = handler
	s.lock.Unlock()
	// subscribes now; events are delivered until the page goes away
	wait := s.page.EachEvent(s.handleConsole)
	go wait()
}

// handleConsole forwards a console event to the handler, unless it is a marker written by
// drainConsole, in which case the drain waiting for it is released.
func (s *session) handleConsole(e *proto.RuntimeConsoleAPICalled) {
	if token, ok := syncToken(e); ok {
		s.lock.Lock()
		ch := s.pendingSync[token]
		delete(s.pendingSync, token)
		s.lock.Unlock()
		if ch != nil {
			close(ch)
		}
		return
	}
	s.lock.Lock()
	handler := s.handler
	s.lock.Unlock()
	if handler != nil {
		handler(s.consoleMessage(e))
	}
}

func syncToken(e *proto.RuntimeConsoleAPICalled) (string, bool) {
	if e.Type != proto.RuntimeConsoleAPICalledTypeDebug || len(e.Args) != 1 ||
		e.Args[0].Type != proto.RuntimeRemoteObjectTypeString {
		return "", false
	}
	token := e.Args[0].Value.Str()
	return token, strings.HasPrefix(token, consoleSyncPrefix)
}

// drainConsole returns once every console event the page emitted before the call has been
// passed to the handler. rod delivers events on their own goroutine, so a command result can
// overtake events that were sent before it.
func (s *session) drainConsole(ctx context.Context) error {
	s.lock.Lock()
	if s.handler == nil {
		s.lock.Unlock()
		return nil
	}
	if s.pendingSync == nil {
		s.pendingSync = map[string]chan struct{}{}
	}
	s.syncSeq++
	token := consoleSyncPrefix + strconv.Itoa(s.syncSeq)
	ch := make(chan struct{})
	s.pendingSync[token] = ch
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		delete(s.pendingSync, token)
		s.lock.Unlock()
	}()
	if _, err := s.page.Context(ctx).Eval(`t => console.debug(t)`, token); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) consoleMessage(e *proto.RuntimeConsoleAPICalled) framework.ConsoleMessage {
	args := e.Args
	texts := make([]string, 0, len(args))
	for _, a := range args {
		texts = append(texts, plainText(a))
	}
	return framework.ConsoleMessage{
		Level: string(e.Type),
		Text:  strings.Join(texts, " "),
		Resolve: func(ctx context.Context) ([]ldvalue.Value, error) {
			return s.resolveArgs(ctx, args), nil
		},
	}
}

func (s *session) resolveArgs(ctx context.Context, args []*proto.RuntimeRemoteObject) []ldvalue.Value {
	page := s.page.Context(ctx)
	ret := make([]ldvalue.Value, 0, len(args))
	for _, a := range args {
		if a.ObjectID == "" {
			ret = append(ret, primitiveValue(a))
			continue
		}
		res, err := page.Evaluate(resolveArgOptions(a))
		if err != nil {
			ret = append(ret, ldvalue.String(plainText(a)))
			continue
		}
		ret = append(ret, primitiveValue(res))
	}
	return ret
}

// resolveArgOptions calls resolveArgFunction on a console argument, returning the result by
// value.
func resolveArgOptions(arg *proto.RuntimeRemoteObject) *rod.EvalOptions {
	return rod.Eval(resolveArgFunction).This(arg)
}

func (s *session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	status := 0
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})
	if err := page.Navigate(url); err != nil {
		return err
	}
	if err := page.WaitLoad(); err != nil {
		return err
	}
	waitDocument()
	if status >= 400 {
		return framework.HTTPStatusError{Status: status}
	}
	return nil
}

func (s *session) Evaluate(ctx context.Context, expression string) (ldvalue.Value, error) {
	res, err := s.page.Context(ctx).Eval("() => (" + expression + ")")
	if err != nil {
		return ldvalue.Null(), err
	}
	// the value stands even if the page stops answering before the marker comes back
	_ = s.drainConsole(ctx)
	return primitiveValue(res), nil
}

func (s *session) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

func jsonValue(j gson.JSON) ldvalue.Value {
	if j.Nil() {
		return ldvalue.Null()
	}
	return ldvalue.Parse([]byte(j.JSON("", "")))
}

func primitiveValue(o *proto.RuntimeRemoteObject) ldvalue.Value {
	switch {
	case o == nil || o.Type == proto.RuntimeRemoteObjectTypeUndefined:
		return ldvalue.Null()
	case o.UnserializableValue != "":
		return framework.UnserializableValue(string(o.UnserializableValue))
	default:
		return jsonValue(o.Value)
	}
}

func plainText(o *proto.RuntimeRemoteObject) string {
	switch {
	case o.Type == proto.RuntimeRemoteObjectTypeUndefined:
		return "undefined"
	case !o.Value.Nil():
		v := jsonValue(o.Value)
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
