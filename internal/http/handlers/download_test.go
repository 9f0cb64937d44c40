package handlers

import (
	"archive/zip"
	"bytes"
	"net/http"
	"testing"
)

func TestDownloadCachesResult(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	transport.responses["GET /result.png"] = fakeResponse{status: http.StatusOK, body: "png-bytes"}
	app := newTestApp(t, transport)
	st := app.Sessions.Create()
	st.SetEditedImage("https://cdn.example.com/result.png")

	rec := do(app.Download, http.MethodGet, "/v1/sessions/"+st.ID()+"/download", st.ID(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	first := transport.callCount()

	rec = do(app.Download, http.MethodGet, "/v1/sessions/"+st.ID()+"/download", st.ID(), nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("cached download failed: %d %q", rec.Code, rec.Body.String())
	}
	if transport.callCount() != first {
		t.Fatalf("second download should come from the cache")
	}
}

func TestDownloadRequiresAURL(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	app := newTestApp(t, transport)
	st := app.Sessions.Create()

	rec := do(app.Download, http.MethodGet, "/v1/sessions/"+st.ID()+"/download", st.ID(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = do(app.Download, http.MethodGet, "/v1/sessions/"+st.ID()+"/download?url=ftp://bad", st.ID(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-http url status = %d, want 400", rec.Code)
	}
}

func TestExportBundlesGallery(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	transport.responses["GET /1.png"] = fakeResponse{status: http.StatusOK, body: "one"}
	transport.responses["GET /2.jpg"] = fakeResponse{status: http.StatusOK, body: "two"}
	app := newTestApp(t, transport)
	st := app.Sessions.Create()
	st.SetGallery([]string{
		"https://cdn.example.com/1.png",
		"https://cdn.example.com/2.jpg",
	})

	rec := do(app.Export, http.MethodGet, "/v1/sessions/"+st.ID()+"/export", st.ID(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	reader, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("archive entries = %d, want 2", len(reader.File))
	}
	names := map[string]bool{}
	for _, f := range reader.File {
		names[f.Name] = true
	}
	if !names["image-1.png"] || !names["image-2.jpg"] {
		t.Fatalf("archive names = %v", names)
	}
}

func TestExportWithNothingToExport(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	app := newTestApp(t, transport)
	st := app.Sessions.Create()

	rec := do(app.Export, http.MethodGet, "/v1/sessions/"+st.ID()+"/export", st.ID(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
