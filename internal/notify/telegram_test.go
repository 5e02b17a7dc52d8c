package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramNotifier_DeliverText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hello", r.PostForm.Get("text"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("TOKEN", srv.URL, nil)
	require.NoError(t, err)
	assert.NoError(t, n.DeliverText(context.Background(), 42, "hello"))
}

func TestTelegramNotifier_DeliverFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendDocument", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "Here are your search results.", r.FormValue("caption"))
		f, hdr, err := r.FormFile("document")
		if assert.NoError(t, err) {
			defer f.Close()
			assert.Equal(t, "search_results_name.txt", hdr.Filename)
			data, _ := io.ReadAll(f)
			assert.Equal(t, "payload", string(data))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("TOKEN", srv.URL+"/", nil)
	require.NoError(t, err)
	assert.NoError(t, n.DeliverFile(context.Background(), 42, []byte("payload"), "search_results_name.txt", "Here are your search results."))
}

func TestTelegramNotifier_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("TOKEN", srv.URL, nil)
	require.NoError(t, err)
	err = n.DeliverText(context.Background(), 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked by the user")
}

func TestTelegramNotifier_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("TOKEN", srv.URL, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.DeliverText(ctx, 1, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTelegramNotifier_RequiresToken(t *testing.T) {
	_, err := NewTelegramNotifier("", "", nil)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(nil)
	assert.NoError(t, n.DeliverText(context.Background(), 1, "x"))
	assert.NoError(t, n.DeliverFile(context.Background(), 1, []byte("x"), "f.txt", ""))
}
