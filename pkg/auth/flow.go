package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"golang.org/x/oauth2"
)

var errNoCode = errors.New("authorization code not found in redirect URL")

// redirectCatcher receives the single OAuth redirect of a browser flow.
type redirectCatcher struct {
	state string
	codes chan string
	errs  chan error
}

func newRedirectCatcher() *redirectCatcher {
	return &redirectCatcher{
		state: uuid.NewString(),
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}
}

func (c *redirectCatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Stray requests (favicon, a stale tab) must not end the flow.
	if q.Get("state") != c.state {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}
	if msg := q.Get("error"); msg != "" {
		http.Error(w, "Authorization denied: "+msg, http.StatusForbidden)
		c.report(fmt.Errorf("authorization denied: %s", msg))
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Authorization code not found", http.StatusBadRequest)
		c.report(errNoCode)
		return
	}
	io.WriteString(w, "whattodo is authorized. You can close this window.")
	select {
	case c.codes <- code:
	default:
	}
}

func (c *redirectCatcher) report(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

// wait blocks until a code arrives, the flow fails, ctx ends or timeout passes.
func (c *redirectCatcher) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case code := <-c.codes:
		return code, nil
	case err := <-c.errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", errors.New("authorization timed out, run `whattodo auth` to try again")
	}
}

// tokenFromWeb runs the authorization code flow with PKCE, catching the
// redirect on a local server.
func tokenFromWeb(ctx context.Context, config *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("cannot listen for the OAuth redirect on port %s: %w", LocalhostAuthPort, err)
	}

	catcher := newRedirectCatcher()
	srv := &http.Server{
		Handler:           catcher,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			catcher.report(fmt.Errorf("redirect server: %w", err))
		}
	}()
	defer srv.Shutdown(context.Background())
	logger.Debug("waiting for OAuth redirect at %s", config.RedirectURL)

	verifier := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL(catcher.state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(out, "Open this URL in your browser to authorize whattodo:\n%s\n", authURL)

	code, err := catcher.wait(ctx, authTimeout)
	if err != nil {
		return nil, err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	tok, err := config.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return tok, nil
}
