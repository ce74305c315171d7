package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const callbackPath = "/oauth/callback"

type callbackResult struct {
	code           string
	state          string
	errCode        string
	errDescription string
}

// CallbackServer is a loopback HTTP server that receives the authorization
// redirect. It binds an ephemeral port on 127.0.0.1 so the redirect URI can
// be constructed before the flow starts.
type CallbackServer struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
	logger   *zap.Logger
}

// StartCallbackServer binds 127.0.0.1:0 and begins serving the callback
// endpoint. Close must be called when the flow finishes.
func StartCallbackServer(logger *zap.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = zap.L().Named("oauth")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("bind callback listener: %w", err)
	}

	s := &CallbackServer{
		listener: listener,
		results:  make(chan callbackResult, 1),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("callback server failed", zap.Error(err))
		}
	}()

	logger.Debug("callback server listening", zap.String("addr", listener.Addr().String()))
	return s, nil
}

// RedirectURI returns the redirect URI served by this instance.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://%s%s", s.listener.Addr().String(), callbackPath)
}

// Await blocks until the authorization server redirects back or ctx ends.
// A redirect carrying an OAuth error parameter is returned as an error.
func (s *CallbackServer) Await(ctx context.Context) (code, state string, err error) {
	select {
	case res := <-s.results:
		if res.errCode != "" {
			if res.errDescription != "" {
				return "", "", fmt.Errorf("authorization denied: %s: %s", res.errCode, res.errDescription)
			}
			return "", "", fmt.Errorf("authorization denied: %s", res.errCode)
		}
		return res.code, res.state, nil
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

// Close shuts the server down, waiting briefly for the response page to
// finish writing.
func (s *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := callbackResult{
		code:           q.Get("code"),
		state:          q.Get("state"),
		errCode:        q.Get("error"),
		errDescription: q.Get("error_description"),
	}

	select {
	case s.results <- res:
	default:
		// A result is already queued; ignore duplicate callbacks.
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.errCode != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, callbackFailurePage)
		return
	}
	fmt.Fprint(w, callbackSuccessPage)
}

const callbackSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Authorization Complete</title></head>
<body>
<h1>Authorization complete</h1>
<p>You can close this window and return to the application.</p>
</body>
</html>`

const callbackFailurePage = `<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title></head>
<body>
<h1>Authorization failed</h1>
<p>The authorization server reported an error. You can close this window.</p>
</body>
</html>`
