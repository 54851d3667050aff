package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallbackServer catches a single OAuth redirect on the configured local
// address. It serves exactly one flow: construct, send the user to the
// consent URL, Wait for the code.
type CallbackServer struct {
	path    string
	state   string
	log     *slog.Logger
	ln      net.Listener
	httpSrv *http.Server
	result  chan callbackResult
}

type callbackResult struct {
	code string
	err  error
}

// NewCallbackServer starts listening on the host and port of redirectURL.
// The state must match the one encoded in the consent URL.
func NewCallbackServer(redirectURL, state string, log *slog.Logger) (*CallbackServer, error) {
	if log == nil {
		log = slog.Default()
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &CallbackServer{
		path:   path,
		state:  state,
		log:    log,
		result: make(chan callbackResult, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleCallback)
	s.httpSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", host, err)
	}
	s.ln = ln
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(callbackResult{err: err})
		}
	}()
	return s, nil
}

// Addr is the bound listener address.
func (s *CallbackServer) Addr() string { return s.ln.Addr().String() }

// Wait blocks until the redirect arrives or ctx ends, then shuts the
// listener down.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	defer s.shutdown()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-s.result:
		return res.code, res.err
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if denial := q.Get("error"); denial != "" {
		s.deliver(callbackResult{err: fmt.Errorf("authorization declined: %s", denial)})
		http.Error(w, "authorization declined", http.StatusBadRequest)
		return
	}
	state := q.Get("state")
	if len(state) != len(s.state) || subtle.ConstantTimeCompare([]byte(state), []byte(s.state)) != 1 {
		s.deliver(callbackResult{err: errors.New("state mismatch in oauth callback")})
		http.Error(w, "state mismatch", http.StatusForbidden)
		return
	}
	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: errors.New("callback carried no authorization code")})
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	s.deliver(callbackResult{code: code})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Authorization received. You can close this window.")
}

// deliver hands the first result to Wait; later requests are answered but
// change nothing.
func (s *CallbackServer) deliver(res callbackResult) {
	select {
	case s.result <- res:
	default:
	}
}

func (s *CallbackServer) shutdown() {
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}
