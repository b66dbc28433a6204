package framework

import (
	"context"
	"net/http"
	"sync"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type fakeEngine struct {
	launchErr error
	session   *fakeSession
	launched  int
}

func (e *fakeEngine) Launch(ctx context.Context) (Session, error) {
	e.launched++
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	return e.session, nil
}

// fakeSession fetches the page over real HTTP so that the static server is exercised, and
// emits its configured console messages while "loading".
type fakeSession struct {
	value       ldvalue.Value
	evalErr     error
	navigateErr error
	closeErr    error
	console     []ConsoleMessage

	lock         sync.Mutex
	handler      func(ConsoleMessage)
	navigatedURL string
	expression   string
	closed       int
}

func (s *fakeSession) Version(ctx context.Context) (string, error) {
	return "FakeBrowser/1.0", nil
}

func (s *fakeSession) OnConsole(handler func(ConsoleMessage)) {
	s.lock.Lock()
	s.handler = handler
	s.lock.Unlock()
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.lock.Lock()
	s.navigatedURL = url
	handler := s.handler
	s.lock.Unlock()

	if s.navigateErr != nil {
		s.emitConsole(handler)
		return s.navigateErr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return HTTPStatusError{Status: resp.StatusCode}
	}
	s.emitConsole(handler)
	return nil
}

func (s *fakeSession) emitConsole(handler func(ConsoleMessage)) {
	for _, m := range s.console {
		if handler != nil {
			handler(m)
		}
	}
}

func (s *fakeSession) Evaluate(ctx context.Context, expression string) (ldvalue.Value, error) {
	s.lock.Lock()
	s.expression = expression
	s.lock.Unlock()
	return s.value, s.evalErr
}

func (s *fakeSession) Close() error {
	s.lock.Lock()
	s.closed++
	s.lock.Unlock()
	return s.closeErr
}

func (s *fakeSession) closeCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func textMessage(text string) ConsoleMessage {
	return ConsoleMessage{Level: "log", Text: text}
}
