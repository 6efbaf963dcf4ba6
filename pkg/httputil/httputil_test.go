package httputil

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/erdflow/pkg/errors"
)

func TestRetry(t *testing.T) {
	ctx := context.Background()
	transient := stderrors.New("connection refused")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return &RetryableError{Err: transient}
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("returns permanent errors at once", func(t *testing.T) {
		calls := 0
		permanent := stderrors.New("bad password")
		err := Retry(ctx, 5, time.Millisecond, func() error {
			calls++
			return permanent
		})
		if err != permanent || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("unwraps the last error", func(t *testing.T) {
		err := Retry(ctx, 2, time.Millisecond, func() error {
			return &RetryableError{Err: transient}
		})
		if err != transient {
			t.Errorf("err = %v, want %v", err, transient)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Retry(cctx, 3, time.Hour, func() error {
			return &RetryableError{Err: transient}
		})
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   errors.Code
	}{
		{errors.New(errors.ErrCodeSessionNotFound, "session %q not found", "x"), 404, errors.ErrCodeSessionNotFound},
		{errors.New(errors.ErrCodeInvalidSize, "width must be positive"), 400, errors.ErrCodeInvalidSize},
		{stderrors.New("boom"), 500, errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, nil, tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != tt.code {
			t.Errorf("%v: code = %s, want %s", tt.err, body.Error.Code, tt.code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Width float64 `json:"width"`
	}
	tests := []struct {
		name  string
		body  string
		limit int64
		ok    bool
	}{
		{"valid", `{"width": 12}`, 0, true},
		{"empty", ``, 0, false},
		{"unknown field", `{"height": 12}`, 0, false},
		{"trailing value", `{"width": 1} {"width": 2}`, 0, false},
		{"too large", `{"width": 1234567890}`, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p, tt.limit)
			if tt.ok && err != nil {
				t.Fatalf("err = %v", err)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}
