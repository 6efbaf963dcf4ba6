// Package httputil provides helpers shared by the HTTP API and by clients
// of remote services.
//
// # Responses
//
// [WriteJSON] and [WriteError] write JSON bodies. Errors are mapped to a
// status code with [errors.HTTPStatus] and rendered as
//
//	{"error": {"code": "SESSION_NOT_FOUND", "message": "session \"x\" not found"}}
//
// [DecodeJSON] reads a request body with a size limit and rejects unknown
// fields; every decode failure is an INVALID_INPUT error.
//
// # Retry
//
// [Retry] runs an operation with exponential backoff. Only errors wrapped
// in [RetryableError] are retried:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    if err := pool.Ping(ctx); err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return nil
//	})
package httputil
