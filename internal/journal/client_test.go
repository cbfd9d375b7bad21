package journal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/patentwatch/internal/pdf/pdftest"
)

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Journal/Patent", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "pw-test" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/Journal/ViewJournal", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch r.FormValue("FileName") {
		case "good.pdf":
			w.Write(pdftest.Build("page one"))
		case "html.pdf":
			w.Write([]byte("<html>Session expired</html>"))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL+"/Journal/Patent", srv.URL+"/Journal/ViewJournal",
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000),
		WithUserAgent("pw-test"),
	)
}

func TestClientFetchListing(t *testing.T) {
	srv := newTestSite(t)

	listings, err := newTestClient(srv).FetchListing(context.Background())
	if err != nil {
		t.Fatalf("FetchListing() error = %v", err)
	}
	if len(listings) != 3 || listings[0].Serial != "46/2025" {
		t.Errorf("FetchListing() = %+v", listings)
	}
}

func TestClientFetchListing_HTTPError(t *testing.T) {
	srv := newTestSite(t)
	c := NewClient(srv.URL+"/Journal/Patent", "", WithHTTPClient(srv.Client()), WithRateLimit(1000), WithUserAgent("other"))

	_, err := c.FetchListing(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("FetchListing() error = %v, want 403 StatusError", err)
	}
}

func TestClientDownloadPart(t *testing.T) {
	srv := newTestSite(t)
	c := newTestClient(srv)
	dir := filepath.Join(t.TempDir(), "raw_pdfs")

	dest := PartPath(dir, "46_2025", Part1Name)
	if err := c.DownloadPart(context.Background(), "good.pdf", dest); err != nil {
		t.Fatalf("DownloadPart() error = %v", err)
	}
	if filepath.Base(dest) != "46_2025_Part_I.pdf" {
		t.Errorf("dest = %s", dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestClientDownloadPart_Failures(t *testing.T) {
	srv := newTestSite(t)
	c := newTestClient(srv)
	dir := t.TempDir()

	dest := filepath.Join(dir, "bad.pdf")
	if err := c.DownloadPart(context.Background(), "html.pdf", dest); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("DownloadPart(html) error = %v, want ErrInvalidArtifact", err)
	}

	var statusErr *StatusError
	if err := c.DownloadPart(context.Background(), "missing.pdf", dest); !errors.As(err, &statusErr) {
		t.Errorf("DownloadPart(missing) error = %v, want StatusError", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed downloads left files behind: %v", entries)
	}
}
