package framework

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
)

const (
	httpListenerTimeout = time.Second * 10
	httpShutdownTimeout = time.Second * 5
)

// StaticServer serves the files under a root directory over HTTP. Additional handlers can be
// mounted at exact paths, which take precedence over files.
type StaticServer struct {
	server    *http.Server
	listener  net.Listener
	baseURL   string
	serveErr  chan error
	closeOnce sync.Once
	closeErr  error
}

// StartStaticServer binds host:port and starts serving root. Port 0 picks a free port. It
// returns once the listener is answering requests; a bind failure is returned immediately
// and is not retried.
func StartStaticServer(host string, port int, root string, routes map[string]http.Handler) (*StaticServer, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	files := http.FileServer(http.Dir(root))
	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if h, ok := routes[req.URL.Path]; ok {
			h.ServeHTTP(w, req)
			return
		}
		files.ServeHTTP(w, req)
	})

	s := &StaticServer{
		server: &http.Server{
			// we use HEAD to test whether our own listener is active yet
			Handler: httphelpers.HandlerForMethod(http.MethodHead, httphelpers.HandlerWithStatus(http.StatusOK), handler),
		},
		listener: listener,
		baseURL:  "http://" + listener.Addr().String(),
		serveErr: make(chan error, 1),
	}
	go func() {
		s.serveErr <- s.server.Serve(listener)
	}()

	if err := s.awaitListener(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// BaseURL returns the server's URL, without a trailing slash.
func (s *StaticServer) BaseURL() string {
	return s.baseURL
}

// Wait till the server is definitely listening for requests before anything is pointed at it.
func (s *StaticServer) awaitListener() error {
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect own listener at %s", s.baseURL)
		case err := <-s.serveErr:
			return fmt.Errorf("listener at %s stopped: %w", s.baseURL, err)
		case <-ticker.C:
			resp, err := http.DefaultClient.Head(s.baseURL)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
	}
}

// Close stops the server and closes its listener. It is safe to call more than once.
func (s *StaticServer) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.closeErr = err
			_ = s.server.Close()
		}
	})
	return s.closeErr
}

// IsBindError reports whether a StartStaticServer error came from binding the address, for
// instance because the port is in use or not permitted.
func IsBindError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "listen"
}
