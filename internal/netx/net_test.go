package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod, gotQuery string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"entries":[]}`))
		}))
		defer ts.Close()

		body, err := Download(ctx, ts.URL+"/exports/u1/x.json?X-Amz-Signature=abc")
		require.NoError(t, err)
		assert.Equal(t, `{"entries":[]}`, string(body))
		assert.Equal(t, http.MethodGet, gotMethod)
		assert.Equal(t, "X-Amz-Signature=abc", gotQuery)
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Request has expired"))
		}))
		defer ts.Close()

		_, err := Download(ctx, ts.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download failed: 403")
		assert.Contains(t, err.Error(), "Request has expired")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		_, err := Download(ctx, ts.URL)
		require.Error(t, err)
		if !isNetOpError(err) {
			assert.False(t, strings.Contains(err.Error(), "download failed"), "got wrong kind of error: %v", err)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := Download(ctx, "memory://exports/x.json")
		require.Error(t, err)
	})
}

type netOpErrorLike interface {
	error
	Timeout() bool
	Temporary() bool
}

func isNetOpError(err error) bool {
	var target netOpErrorLike
	return errors.As(err, &target)
}
