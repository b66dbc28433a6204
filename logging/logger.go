package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns just the text of each captured message.
func (output CapturedOutput) Messages() []string {
	ret := make([]string, 0, len(output))
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

// ConsoleLogger writes one line per message, with a colored prefix identifying the harness
// as opposed to output forwarded from the page.
type ConsoleLogger struct {
	out    io.Writer
	prefix string
	lock   sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger. The prefix is rendered with the given color
// attributes; fatih/color disables them automatically when out is not a terminal.
func NewConsoleLogger(out io.Writer, prefix string, attrs ...color.Attribute) *ConsoleLogger {
	l := &ConsoleLogger{out: out}
	if prefix != "" {
		l.prefix = color.New(attrs...).Sprint(prefix)
	}
	return l
}

func (l *ConsoleLogger) Printf(message string, args ...interface{}) {
	line := fmt.Sprintf(message, args...)
	l.lock.Lock()
	if l.prefix == "" {
		fmt.Fprintln(l.out, line)
	} else {
		fmt.Fprintf(l.out, "%s %s\n", l.prefix, line)
	}
	l.lock.Unlock()
}
