package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
)

func newTestClient(server *httptest.Server, token string) *Client {
	client := NewClient(token)
	client.BaseURL = server.URL
	client.HTTPClient = server.Client()
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient("secret")

	if client.BaseURL != "https://api.github.com" {
		t.Errorf("Expected BaseURL https://api.github.com, got %s", client.BaseURL)
	}
	if client.Token != "secret" {
		t.Errorf("Expected token to be stored, got %q", client.Token)
	}
	if client.HTTPClient == nil {
		t.Error("Expected HTTPClient to be set")
	}
}

func TestAuthenticatedUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"login": "octo", "name": "Octo Cat"}`))
	}))
	defer server.Close()

	user, err := newTestClient(server, "secret").AuthenticatedUser(context.Background())
	if err != nil {
		t.Fatalf("AuthenticatedUser() error: %v", err)
	}
	if user.Login != "octo" || user.Name != "Octo Cat" {
		t.Errorf("user = %+v", user)
	}
}

func TestMissingToken(t *testing.T) {
	client := NewClient("")
	if _, err := client.AuthenticatedUser(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}
}

func TestBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, "wrong").AuthenticatedUser(context.Background())
	if !errors.Is(err, ErrBadCredentials) {
		t.Errorf("error = %v, want ErrBadCredentials", err)
	}
}

func TestRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server, "secret").Repositories(context.Background())
	if !errors.Is(err, ErrRateLimit) {
		t.Errorf("error = %v, want ErrRateLimit", err)
	}
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server, "secret").Repositories(context.Background())
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("error = %v, want ErrAPIError", err)
	}
}

func TestPushableRepositoryNamesPaginates(t *testing.T) {
	// 150 repositories: page 1 full, page 2 short
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages = append(pages, page)

		var repos []map[string]interface{}
		start := (page - 1) * reposPerPage
		for i := start; i < start+reposPerPage && i < 150; i++ {
			repos = append(repos, map[string]interface{}{
				"name":        fmt.Sprintf("pkg-%03d-feedstock", i),
				"permissions": map[string]bool{"push": i%2 == 0, "pull": true},
			})
		}
		if repos == nil {
			repos = []map[string]interface{}{}
		}
		json.NewEncoder(w).Encode(repos)
	}))
	defer server.Close()

	names, err := newTestClient(server, "secret").PushableRepositoryNames(context.Background())
	if err != nil {
		t.Fatalf("PushableRepositoryNames() error: %v", err)
	}

	if !reflect.DeepEqual(pages, []int{1, 2}) {
		t.Errorf("pages requested = %v, want [1 2]", pages)
	}
	if len(names) != 75 {
		t.Errorf("got %d pushable repositories, want 75", len(names))
	}
	if names[0] != "pkg-000-feedstock" || names[1] != "pkg-002-feedstock" {
		t.Errorf("names not in listing order: %v", names[:2])
	}
}

func TestPushableRepositoryNamesSkipsArchived(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"name": "numpy-feedstock", "permissions": map[string]bool{"push": true}},
			{"name": "oldpkg-feedstock", "archived": true, "permissions": map[string]bool{"push": true}},
			{"name": "scipy-feedstock", "permissions": map[string]bool{"push": true}},
		})
	}))
	defer server.Close()

	names, err := newTestClient(server, "secret").PushableRepositoryNames(context.Background())
	if err != nil {
		t.Fatalf("PushableRepositoryNames() error: %v", err)
	}

	want := []string{"numpy-feedstock", "scipy-feedstock"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}
