package clipper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head><title> Tarte Tatin </title><script>alert('bad');</script></head>
			<body>
				<nav>Accueil | Recettes</nav>
				<h1>Tarte   Tatin</h1>
				<div class="ads">Buy stuff!</div>
				<p>Caraméliser les pommes.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c := NewClipper(ts.Client())
	page, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if page.Title != "Tarte Tatin" {
		t.Errorf("Expected title 'Tarte Tatin', got %q", page.Title)
	}
	for _, bad := range []string{"alert('bad')", "Buy stuff!", "Copyright 2024", "Accueil"} {
		if strings.Contains(page.Text, bad) {
			t.Errorf("Expected %q to be stripped, got %q", bad, page.Text)
		}
	}
	if page.Text != "Tarte Tatin\nCaraméliser les pommes." {
		t.Errorf("Unexpected cleaned text %q", page.Text)
	}
}

func TestFetch_Truncates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("é", 50) + "</p></body></html>"))
	}))
	defer ts.Close()

	c := NewClipper(ts.Client())
	c.maxChars = 10
	page, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Text != strings.Repeat("é", 10) {
		t.Errorf("Expected 10 runes, got %q", page.Text)
	}
}

func TestFetch_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewClipper(ts.Client()).Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("Expected an error for 404, got nil")
	}
}
