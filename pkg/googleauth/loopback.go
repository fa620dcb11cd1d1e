package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// callbackResult is what the loopback listener hands back to the flow.
type callbackResult struct {
	code     string
	state    string
	errParam string
}

// loopbackListener catches the OAuth redirect on a localhost port. The
// listener serves exactly one callback and is then shut down by the caller.
type loopbackListener struct {
	server  *http.Server
	results chan callbackResult
}

func newLoopbackListener(redirectURL string) (*loopbackListener, error) {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("googleauth: invalid redirect url: %w", err)
	}

	results := make(chan callbackResult, 1)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET(parsed.Path, func(c *gin.Context) {
		result := callbackResult{
			code:     c.Query("code"),
			state:    c.Query("state"),
			errParam: c.Query("error"),
		}

		select {
		case results <- result:
		default: // a second hit after the first callback is ignored
		}

		if result.errParam != "" {
			c.String(http.StatusOK, "Sign-in was not completed. You can close this window.")
			return
		}
		c.String(http.StatusOK, "Signed in. You can close this window and return to the app.")
	})

	listener := &loopbackListener{
		server:  &http.Server{Addr: parsed.Host, Handler: router},
		results: results,
	}

	go func() {
		if err := listener.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{errParam: "listener: " + err.Error()}:
			default:
			}
		}
	}()

	return listener, nil
}

// wait blocks until the redirect arrives or the wait window closes.
func (l *loopbackListener) wait(ctx context.Context, timeout time.Duration) (callbackResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-l.results:
		return result, nil
	case <-timer.C:
		return callbackResult{}, ErrDismissed
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	}
}

func (l *loopbackListener) close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = l.server.Shutdown(shutdownCtx)
}
