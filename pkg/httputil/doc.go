// Package httputil provides retry helpers for irscope's HTTP client.
//
// [Retry] runs an operation with exponential backoff, retrying only errors
// wrapped in [RetryableError]. [CheckStatus] classifies response statuses:
// 5xx and 429 are transient and retryable, other non-2xx statuses are not.
//
//	err := httputil.Retry(ctx, 3, 200*time.Millisecond, func() error {
//	    resp, err := http.DefaultClient.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp.StatusCode)
//	})
package httputil
