package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

type daemonRequest struct {
	method string
	path   string
	query  string
}

func newFakeDaemon(t *testing.T, status int, body string) (*httptest.Server, *[]daemonRequest) {
	t.Helper()

	var seen []daemonRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, daemonRequest{r.Method, r.URL.Path, r.URL.RawQuery})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		refreshAddr = ""
		refreshPostNumber = 0
	})
	return srv, &seen
}

func TestRefreshCmd_Queues(t *testing.T) {
	srv, seen := newFakeDaemon(t, http.StatusAccepted, `{"instance":"magicians","subject":42,"page":1}`)

	out, err := executeCommand(t, "refresh", "magicians", "42", "--addr", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "Queued magicians/42 page 1")
	require.Len(t, *seen, 1)
	assert.Equal(t, daemonRequest{http.MethodPost, "/v1/refresh/magicians/42", ""}, (*seen)[0])
}

func TestRefreshCmd_ExplicitPage(t *testing.T) {
	srv, seen := newFakeDaemon(t, http.StatusAccepted, `{"page":3}`)

	_, err := executeCommand(t, "refresh", "ethereum/pm", "1200", "3", "--addr", srv.URL)

	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "/v1/refresh/ethereum/pm/1200", (*seen)[0].path)
	assert.Equal(t, "page=3", (*seen)[0].query)
}

func TestRefreshCmd_PostNumber(t *testing.T) {
	srv, seen := newFakeDaemon(t, http.StatusAccepted, `{"page":4}`)

	out, err := executeCommand(t, "refresh", "magicians", "42", "--post-number", "61", "--addr", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "page 4")
	assert.Equal(t, "post_number=61", (*seen)[0].query)
}

func TestRefreshCmd_Rejected(t *testing.T) {
	srv, _ := newFakeDaemon(t, http.StatusNotFound, `{"error":"unknown source instance: \"nope\""}`)

	_, err := executeCommand(t, "refresh", "nope", "42", "--addr", srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "unknown source instance")
}

func TestRefreshCmd_InvalidArgs(t *testing.T) {
	srv, seen := newFakeDaemon(t, http.StatusAccepted, `{}`)

	_, err := executeCommand(t, "refresh", "magicians", "abc", "--addr", srv.URL)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "refresh", "magicians", "42", "0", "--addr", srv.URL)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, *seen)
}

func TestAdminURL(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{":3000", "http://localhost:3000"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"http://mirror.internal:3000", "http://mirror.internal:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			assert.Equal(t, tt.want, adminURL(tt.listen))
		})
	}
}
