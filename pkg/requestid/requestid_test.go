package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/requestid"
)

func serve(t *testing.T, headerID string) (ctxID, respID string) {
	t.Helper()
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if headerID != "" {
		req.Header.Set(requestid.Header, headerID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return ctxID, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("kept ids", func(t *testing.T) {
		t.Parallel()
		for _, id := range []string{
			"abc123",
			"conn-42_retry",
			"550e8400-e29b-41d4-a716-446655440000",
		} {
			ctxID, respID := serve(t, id)
			assert.Equal(t, id, ctxID, id)
			assert.Equal(t, id, respID, id)
		}
	})

	t.Run("replaced ids", func(t *testing.T) {
		t.Parallel()
		for name, id := range map[string]string{
			"missing":   "",
			"spaces":    "lock request 1",
			"slashes":   "account/doc/1",
			"markup":    "<script>alert(1)</script>",
			"oversized": strings.Repeat("a", 129),
		} {
			ctxID, respID := serve(t, id)
			assert.NotEmpty(t, ctxID, name)
			assert.NotEqual(t, id, ctxID, name)
			assert.Equal(t, ctxID, respID, name)
		}
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := requestid.WithContext(context.Background(), "req-1")
	assert.Equal(t, "req-1", requestid.FromContext(ctx))
	assert.Empty(t, requestid.FromContext(context.Background()))
}
