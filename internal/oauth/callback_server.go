package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/observability/middleware"
	"github.com/Mohamed26Salah/Halan-Twitter-Task/internal/twitter"
)

// successPage is shown in the browser after the provider redirects back.
const successPage = `<!DOCTYPE html>
<html>
<head><title>Authentication complete</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>Authentication complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

// callbackRelay is a short-lived loopback HTTP server that captures exactly
// one provider redirect. The listener is bound before serving starts, so a
// port conflict surfaces as a construction error rather than a lost redirect.
type callbackRelay struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult

	deliverOnce sync.Once
}

func newCallbackRelay(redirectURI string) (*callbackRelay, error) {
	addr, path, err := parseRedirectURI(redirectURI)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	relay := &callbackRelay{
		listener: listener,
		results:  make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, relay.handleCallback)

	// The query string carries the single-use authorization code. Logging it
	// is acceptable on a loopback relay: the code is bound to this attempt's
	// PKCE verifier and is spent moments later.
	relay.server = &http.Server{
		Handler:           middleware.Logging(middleware.Recovery(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return relay, nil
}

// serve starts the HTTP server on the pre-bound listener. The returned
// channel carries a serve failure, if any.
func (r *callbackRelay) serve() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := r.server.Serve(r.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// handleCallback translates the provider redirect into a callbackResult.
func (r *callbackRelay) handleCallback(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
		r.deliver(callbackResult{err: callbackError(errCode, query.Get("error_description"))})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, successPage)
	r.deliver(callbackResult{callbackURL: req.URL})
}

// deliver publishes the first result; stray follow-up requests are dropped.
func (r *callbackRelay) deliver(result callbackResult) {
	r.deliverOnce.Do(func() {
		r.results <- result
	})
}

// shutdown stops the relay, letting an in-flight response finish.
func (r *callbackRelay) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.server.Shutdown(ctx)
}

// callbackError maps a provider error redirect to the flow's error taxonomy.
func callbackError(code, description string) error {
	if code == "access_denied" {
		return twitter.ErrUserCancelled
	}
	if description != "" {
		return &twitter.ExchangeError{Message: description}
	}
	return &twitter.ExchangeError{Message: code}
}
