package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// statusError carries a non-2xx response status through the retry layer so
// transient server errors can be distinguished from hard client errors.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.status, e.url)
}

// isNotFound reports whether err is a provider 404.
func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// isTransient reports whether an error is worth retrying within a single
// adapter call: network failures and 5xx responses qualify, 4xx do not.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	// Anything that is not a status error is a transport-level failure.
	return true
}

// getJSON performs a GET with a small bounded retry for transient failures
// and decodes the JSON body into out. The caller's context carries the
// per-call timeout, so retries stop as soon as the deadline passes.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				io.Copy(io.Discard, resp.Body)
				serr := &statusError{status: resp.StatusCode, url: url}
				if resp.StatusCode >= 500 {
					return serr
				}
				return retry.Unrecoverable(serr)
			}

			if out == nil {
				io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}
