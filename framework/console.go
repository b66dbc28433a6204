package framework

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const consoleQueueSize = 100

// ConsoleMessage is one console API call made by the page.
type ConsoleMessage struct {
	// Level is the console method, such as "log", "warn" or "error".
	Level string

	// Text is a plain rendering of the arguments that needs no further work from the browser.
	Text string

	// Resolve, if not nil, asks the browser for the arguments as plain values. Error objects
	// resolve to their message. It must return once ctx is done.
	Resolve func(ctx context.Context) ([]ldvalue.Value, error)
}

// ConsoleForwarder writes console messages from the page to an io.Writer, one line per
// message, in the order they were accepted.
//
// In verbose mode, the arguments of each message are resolved by the browser, which can take
// a round trip per message; resolutions run concurrently and a MessageSortingQueue puts the
// results back in order. A resolution that takes longer than resolveTimeout is abandoned and
// the message's plain Text is written in its place.
type ConsoleForwarder struct {
	ctx            context.Context
	verbose        bool
	resolveTimeout time.Duration
	queue   *MessageSortingQueue
	group   errgroup.Group
	counter int
	closed  bool
	lock    sync.Mutex
	done    chan struct{}
}

func NewConsoleForwarder(ctx context.Context, out io.Writer, verbose bool, resolveTimeout time.Duration) *ConsoleForwarder {
	f := &ConsoleForwarder{
		ctx:            ctx,
		verbose:        verbose,
		resolveTimeout: resolveTimeout,
		queue:          NewMessageSortingQueue(consoleQueueSize),
		done:           make(chan struct{}),
	}
	lines := f.queue.C
	go func() {
		for line := range lines {
			fmt.Fprintln(out, line)
		}
		close(f.done)
	}()
	return f
}

// Accept queues a message for output. It does not block. Messages accepted after Flush are
// dropped.
func (f *ConsoleForwarder) Accept(msg ConsoleMessage) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.closed {
		return
	}
	f.counter++
	counter := f.counter
	f.group.Go(func() error {
		f.queue.Accept(counter, f.render(msg))
		return nil
	})
}

// Flush waits until every accepted message has been written.
func (f *ConsoleForwarder) Flush() {
	f.lock.Lock()
	f.closed = true
	f.lock.Unlock()

	_ = f.group.Wait()
	f.queue.Close()
	<-f.done
}

func (f *ConsoleForwarder) render(msg ConsoleMessage) string {
	if !f.verbose {
		return msg.Text
	}
	text := msg.Text
	if msg.Resolve != nil {
		ctx, cancel := context.WithTimeout(f.ctx, f.resolveTimeout)
		if args, err := msg.Resolve(ctx); err == nil && ctx.Err() == nil {
			text = FormatConsoleArgs(args)
		}
		cancel()
	}
	if msg.Level != "" && msg.Level != "log" {
		text = "[" + msg.Level + "] " + text
	}
	return text
}

// FormatConsoleArgs joins console arguments with spaces the way console.log prints them:
// strings as-is, anything else as JSON.
func FormatConsoleArgs(args []ldvalue.Value) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Type() == ldvalue.StringType {
			parts = append(parts, a.StringValue())
		} else {
			parts = append(parts, a.JSONString())
		}
	}
	return strings.Join(parts, " ")
}
