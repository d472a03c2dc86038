package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seoforge/seoforge/internal/store"
)

func testSiteAndDraft() (*store.SiteRecord, *store.DraftRecord) {
	site := &store.SiteRecord{
		ID:       1,
		Domain:   "jcpeintre.fr",
		RootPath: "/var/www/html",
	}
	draft := &store.DraftRecord{
		ID:    1,
		Title: "Peinture de façade",
		Slug:  "peinture-de-facade",
		Body:  `<p>Texte</p><script>alert("xss")</script>`,
	}
	return site, draft
}

func TestPublishPostsSanitizedPayload(t *testing.T) {
	var got publishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(publishResponse{URL: "https://jcpeintre.fr/blog/peinture-de-facade"})
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, "secret", 5*time.Second)
	site, draft := testSiteAndDraft()
	url, err := p.Publish(context.Background(), site, draft)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://jcpeintre.fr/blog/peinture-de-facade" {
		t.Fatalf("unexpected url %q", url)
	}
	if got.Slug != "peinture-de-facade" || got.Domain != "jcpeintre.fr" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if strings.Contains(got.Body, "<script>") {
		t.Fatalf("script tag survived sanitizing: %q", got.Body)
	}
	if !strings.Contains(got.Body, "<p>Texte</p>") {
		t.Fatalf("content lost in sanitizing: %q", got.Body)
	}
}

func TestPublishDerivesURLWhenServerOmitsIt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, "", 5*time.Second)
	site, draft := testSiteAndDraft()
	url, err := p.Publish(context.Background(), site, draft)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://jcpeintre.fr/blog/peinture-de-facade" {
		t.Fatalf("unexpected derived url %q", url)
	}
}

func TestPublishSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "disk full", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, "", 5*time.Second)
	site, draft := testSiteAndDraft()
	if _, err := p.Publish(context.Background(), site, draft); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestPublishRespectsContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	p := NewHTTPPublisher(srv.URL, "", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	site, draft := testSiteAndDraft()
	if _, err := p.Publish(ctx, site, draft); err == nil {
		t.Fatal("expected deadline error")
	}
}

func TestPublishWithoutEndpointFails(t *testing.T) {
	p := NewHTTPPublisher("", "", time.Second)
	site, draft := testSiteAndDraft()
	if _, err := p.Publish(context.Background(), site, draft); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Peinture de façade", "peinture-de-facade"},
		{"Rénovation énergétique : les aides 2026", "renovation-energetique-les-aides-2026"},
		{"  Déjà   publié !  ", "deja-publie"},
		{"Œuvre d'art", "oeuvre-d-art"},
		{"---", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("mot ", 60)
	got := Slugify(long)
	if len(got) > 80 {
		t.Fatalf("slug too long: %d", len(got))
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Fatalf("slug has dangling hyphen: %q", got)
	}
}
