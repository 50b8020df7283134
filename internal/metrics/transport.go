package metrics

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxPoolSize bounds the connection pool shared by all concurrent gather
// calls. When every connection is in use, additional queries block waiting
// for a free one rather than opening more or failing.
const maxPoolSize = 10

// newPooledTransport builds the HTTP transport all backend traffic goes
// through. MaxConnsPerHost is the blocking bound; idle connections are kept
// up to the same limit so the pool is actually reused.
func newPooledTransport(sslEnabled bool) *http.Transport {
	t := &http.Transport{
		MaxConnsPerHost:     maxPoolSize,
		MaxIdleConnsPerHost: maxPoolSize,
		IdleConnTimeout:     90 * time.Second,
	}
	if !sslEnabled {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit --no-ssl-verify opt-in
	}
	return t
}

// authRoundTripper injects an Authorization header into every request that
// does not already carry one.
type authRoundTripper struct {
	next   http.RoundTripper
	header string
}

func (a *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if a.header != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", a.header)
	}
	return a.next.RoundTrip(req)
}

// retryRoundTripper retries transport errors and retryable HTTP statuses with
// exponential backoff. Requests with a non-rewindable body are sent once.
type retryRoundTripper struct {
	next       http.RoundTripper
	maxRetries uint64
}

func (r *retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.maxRetries == 0 || (req.Body != nil && req.GetBody == nil) {
		return r.next.RoundTrip(req)
	}

	var resp *http.Response
	op := func() error {
		if req.Body != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}

		var err error
		resp, err = r.next.RoundTrip(req)
		if err != nil {
			return err
		}
		if retryableStatus(resp.StatusCode) {
			// Drain so the connection goes back to the pool.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return fmt.Errorf("backend returned %s", resp.Status)
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries),
		req.Context(),
	)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
