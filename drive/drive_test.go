package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// newTestStore spins up a fake Drive API and a Store pointed at it.
func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := drivev3.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	s := NewStoreWithService(svc)
	s.RetryConfig.MaxRetries = 0
	return s
}

func TestFindReturnsHandle(t *testing.T) {
	var gotQuery string
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if spaces := r.URL.Query().Get("spaces"); spaces != "appDataFolder" {
			t.Errorf("spaces = %q, want appDataFolder", spaces)
		}
		fmt.Fprint(w, `{"files":[{"id":"file-123"}]}`)
	}))

	id, err := store.Find(context.Background(), "categories.json")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if id != "file-123" {
		t.Errorf("id = %q, want file-123", id)
	}
	if gotQuery != "name='categories.json'" {
		t.Errorf("query = %q, want name filter", gotQuery)
	}
}

func TestFindAbsentDocument(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"files":[]}`)
	}))

	id, err := store.Find(context.Background(), "categories.json")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty for absent document", id)
	}
}

func TestReadDownloadsContent(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "file-123") {
			t.Errorf("path = %q, want file id in path", r.URL.Path)
		}
		fmt.Fprint(w, `{"categories":[]}`)
	}))

	content, err := store.Read(context.Background(), "file-123")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(content) != `{"categories":[]}` {
		t.Errorf("content = %s", content)
	}
}

func TestCreateSendsMultipartAndCapturesHandle(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		// One request carries both metadata and content
		if !strings.Contains(string(body), `"categories.json"`) {
			t.Error("request body missing document name metadata")
		}
		if !strings.Contains(string(body), "appDataFolder") {
			t.Error("request body missing appDataFolder parent")
		}
		if !strings.Contains(string(body), `{"categories":[]}`) {
			t.Error("request body missing JSON content")
		}
		fmt.Fprint(w, `{"id":"new-file"}`)
	}))

	id, err := store.Create(context.Background(), "categories.json", []byte(`{"categories":[]}`))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "new-file" {
		t.Errorf("id = %q, want new-file", id)
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	var sawID bool
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "file-123") {
			sawID = true
		}
		fmt.Fprint(w, `{"id":"file-123"}`)
	}))

	if err := store.Update(context.Background(), "file-123", []byte(`{}`)); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !sawID {
		t.Error("update did not target the known handle")
	}
}

func TestAuthExpiryMapsToSentinel(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	}))

	_, err := store.Find(context.Background(), "categories.json")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("error = %v, want ErrAuthExpired", err)
	}
}
