package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sitegen_server/internal/ai"
	"sitegen_server/internal/logger"
	"sitegen_server/internal/project"
)

type fakeGenerator struct {
	raw string
	err error
}

func (f fakeGenerator) GenerateSite(_ context.Context, _ string) (string, error) {
	return f.raw, f.err
}

func newTestServer(t *testing.T, gen SiteGenerator) (*gin.Engine, *project.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	store, err := project.NewStore(filepath.Join(root, "projects"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	index, err := project.OpenIndex(filepath.Join(root, "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	router := gin.New()
	RegisterRoutes(router, NewAPIHandler(gen, store, index, logger.NewNop()))
	return router, store
}

func postGenerate(t *testing.T, router *gin.Engine, prompt string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const bakeryHTML = "<html><head><title>Bakery</title></head><body><h1>Fresh bread</h1></body></html>"

func bakeryResponse() string {
	return "```html\n" + bakeryHTML + "\n```\n\n" +
		"```css\nbody { font-family: Inter, sans-serif; }\n```\n\n" +
		"```js\ndocument.querySelector('h1');\n```\n"
}

func TestGenerateEndToEnd(t *testing.T) {
	router, store := newTestServer(t, fakeGenerator{raw: bakeryResponse()})

	rec := postGenerate(t, router, "make a landing page for a bakery")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("empty project id")
	}
	if resp.Status != "ok" || len(resp.Missing) != 0 {
		t.Fatalf("status=%q missing=%v, want ok/none", resp.Status, resp.Missing)
	}
	if !strings.Contains(resp.Code.HTML, "<html") {
		t.Fatalf("code.html does not look like markup: %q", resp.Code.HTML)
	}

	// Preview of the markup carries the injected asset references.
	prev := get(router, "/preview/"+resp.ID)
	if prev.Code != http.StatusOK {
		t.Fatalf("preview: got %d", prev.Code)
	}
	markup := prev.Body.String()
	if !strings.Contains(markup, "Fresh bread") {
		t.Fatalf("preview does not serve the generated markup: %q", markup)
	}
	if !strings.Contains(markup, `href="style.css"`) || !strings.Contains(markup, `src="script.js"`) {
		t.Fatalf("preview markup missing injected asset links: %q", markup)
	}

	// Named-file preview.
	css := get(router, "/preview/"+resp.ID+"/style.css")
	if css.Code != http.StatusOK || !strings.Contains(css.Body.String(), "Inter") {
		t.Fatalf("style preview: code=%d body=%q", css.Code, css.Body.String())
	}

	// Download returns a zip whose entries match the on-disk files.
	dl := get(router, "/download/"+resp.ID)
	if dl.Code != http.StatusOK {
		t.Fatalf("download: got %d", dl.Code)
	}
	if got := dl.Header().Get("Content-Disposition"); !strings.Contains(got, resp.ID+".zip") {
		t.Errorf("content disposition: %q", got)
	}
	zr, err := zip.NewReader(bytes.NewReader(dl.Body.Bytes()), int64(dl.Body.Len()))
	if err != nil {
		t.Fatalf("open downloaded zip: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("zip has %d entries, want 3", len(zr.File))
	}
	for _, f := range zr.File {
		onDisk, err := os.ReadFile(filepath.Join(store.Dir(resp.ID), f.Name))
		if err != nil {
			t.Fatalf("read on-disk %s: %v", f.Name, err)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open zip entry %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read zip entry %s: %v", f.Name, err)
		}
		rc.Close()
		if !bytes.Equal(buf.Bytes(), onDisk) {
			t.Errorf("zip entry %s differs from on-disk file", f.Name)
		}
	}
}

func TestGenerateMissingBlocks(t *testing.T) {
	raw := "```html\n" + bakeryHTML + "\n```\n"
	router, store := newTestServer(t, fakeGenerator{raw: raw})

	rec := postGenerate(t, router, "html only please")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: got %d", rec.Code)
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code.CSS != "" || resp.Code.JS != "" {
		t.Fatalf("expected empty css/js, got %q / %q", resp.Code.CSS, resp.Code.JS)
	}
	if resp.Status != "partial" {
		t.Fatalf("status: got %q want partial", resp.Status)
	}
	wantMissing := []string{"css", "js"}
	if fmt.Sprint(resp.Missing) != fmt.Sprint(wantMissing) {
		t.Fatalf("missing: got %v want %v", resp.Missing, wantMissing)
	}

	onDisk, err := os.ReadFile(filepath.Join(store.Dir(resp.ID), project.StyleFile))
	if err != nil {
		t.Fatalf("read style.css: %v", err)
	}
	if string(onDisk) != project.PlaceholderCSS {
		t.Fatalf("style.css: got %q want placeholder %q", onDisk, project.PlaceholderCSS)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	gen := fakeGenerator{err: fmt.Errorf("%w: connection refused", ai.ErrUpstreamUnavailable)}
	router, _ := newTestServer(t, gen)

	rec := postGenerate(t, router, "anything")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502; body=%s", rec.Code, rec.Body.String())
	}
}

func TestGenerateOtherFailure(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{err: errors.New("boom")})
	rec := postGenerate(t, router, "anything")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", rec.Code)
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{raw: bakeryResponse()})
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestGenerateAcceptsEmptyPrompt(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{raw: bakeryResponse()})
	rec := postGenerate(t, router, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty prompt rejected: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestPreviewNotFound(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{})
	if rec := get(router, "/preview/does-not-exist"); rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
	if rec := get(router, "/preview/does-not-exist/style.css"); rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestDownloadNotFound(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{})
	if rec := get(router, "/download/does-not-exist"); rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestListProjects(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{raw: bakeryResponse()})

	rec := postGenerate(t, router, "a bakery page")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: got %d", rec.Code)
	}

	list := get(router, "/projects")
	if list.Code != http.StatusOK {
		t.Fatalf("list: got %d", list.Code)
	}
	var resp struct {
		Projects []project.Record `json:"projects"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Projects) != 1 || resp.Projects[0].Prompt != "a bakery page" {
		t.Fatalf("unexpected listing: %+v", resp.Projects)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t, fakeGenerator{})
	rec := get(router, "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
