package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"miam-planner/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestCreatePost(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/ghost/api/admin/posts/" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Ghost ")
			if !ok {
				t.Fatalf("Missing Ghost authorization header")
			}
			secret, _ := hex.DecodeString(testSecret)
			token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
				if tok.Header["kid"] != "key-id" {
					return nil, fmt.Errorf("unexpected kid %v", tok.Header["kid"])
				}
				return secret, nil
			}, jwt.WithAudience("/admin/"))
			if err != nil || !token.Valid {
				t.Fatalf("Invalid admin token: %v", err)
			}

			var body map[string][]map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body["posts"][0]["status"] != "published" {
				t.Errorf("Expected published status, got %v", body["posts"][0]["status"])
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprintln(w, `{"posts":[{"id":"p1","title":"Soupe","status":"published","url":"https://blog.example/soupe/"}]}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL + "/", GhostAdminKey: "key-id:" + testSecret})
		post, err := client.CreatePost(context.Background(), "Soupe", "<p>x</p>", true)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if post.ID != "p1" || post.URL != "https://blog.example/soupe/" {
			t.Errorf("Unexpected post %+v", post)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"errors":[{"message":"bad token"}]}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: "key-id:" + testSecret})
		if _, err := client.CreatePost(context.Background(), "t", "h", false); err == nil {
			t.Fatal("Expected an error for 401, got nil")
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		client := NewClient(&config.Config{GhostURL: "http://unused", GhostAdminKey: "no-colon"})
		if _, err := client.CreatePost(context.Background(), "t", "h", false); err == nil {
			t.Fatal("Expected an error for malformed admin key, got nil")
		}
	})
}
