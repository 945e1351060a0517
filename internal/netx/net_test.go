package netx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadPresignedURL(t *testing.T) {
	payload := []byte(`{"credentials":[]}`)

	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod, gotQuery string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotQuery = r.URL.RawQuery
			_, _ = w.Write(payload)
		}))
		defer ts.Close()

		var buf bytes.Buffer
		n, err := DownloadPresignedURL(context.Background(), ts.Client(), ts.URL+"/exports/u1/x.json?X-Amz-Signature=abc", &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(len(payload)), n)
		assert.Equal(t, payload, buf.Bytes())
		assert.Equal(t, http.MethodGet, gotMethod)
		assert.Equal(t, "X-Amz-Signature=abc", gotQuery)
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Request has expired"))
		}))
		defer ts.Close()

		var buf bytes.Buffer
		_, err := DownloadPresignedURL(context.Background(), ts.Client(), ts.URL, &buf)
		assert.ErrorContains(t, err, "download failed: 403")
		assert.ErrorContains(t, err, "Request has expired")
		assert.Zero(t, buf.Len())
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		_, err := DownloadPresignedURL(context.Background(), http.DefaultClient, url, &bytes.Buffer{})
		assert.Error(t, err)
		assert.NotContains(t, err.Error(), "download failed")
	})
}
