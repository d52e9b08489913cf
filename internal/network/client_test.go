package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs":
			if r.Header.Get("User-Agent") == "" {
				t.Errorf("missing user agent")
			}
			_, _ = w.Write([]byte("<html>ok</html>"))
		case "/old":
			http.Redirect(w, r, "/jobs", http.StatusFound)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	client, err := NewClient(nil, ClientOptions{Timeout: 5 * time.Second, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	body, final, err := client.Get(context.Background(), srv.URL+"/old", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if final != srv.URL+"/jobs" {
		t.Fatalf("final URL = %q", final)
	}

	if _, _, err := client.Get(context.Background(), srv.URL+"/blocked", nil); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Get() error = %v, want ErrRequestFailed", err)
	}
}
