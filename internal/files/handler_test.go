package files

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	router *gin.Engine
	blobs  *memoryBlobs
	ext    *fakeExtractor
}

func newTestServer(t *testing.T, maxUploadSize int64) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	blobs := newMemoryBlobs()
	repo := NewMemoryStore()
	ext := &fakeExtractor{text: "pdf text"}
	h := NewHandler(
		&Uploader{Blobs: blobs, Repo: repo, Extractor: ext},
		&Retriever{Blobs: blobs, Repo: repo},
		maxUploadSize,
	)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return testServer{router: router, blobs: blobs, ext: ext}
}

func (s testServer) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func multipartRequest(t *testing.T, target, fileName, contentType string, payload []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": fileName,
	}))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (s testServer) uploadFile(t *testing.T, userID, fileName, contentType string, payload []byte) FileResponse {
	t.Helper()
	resp := s.do(multipartRequest(t, "/api/files/"+userID+"/upload", fileName, contentType, payload))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created FileResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return created
}

func TestHandlerUploadAndDownload(t *testing.T) {
	s := newTestServer(t, 0)

	created := s.uploadFile(t, "u1", "hello.txt", "text/plain", []byte("hello world"))
	if created.ID == "" || created.UserID != "u1" || created.FileName != "hello.txt" {
		t.Fatalf("unexpected response: %+v", created)
	}
	if created.FileSize != int64(len("hello world")) {
		t.Fatalf("unexpected size: %d", created.FileSize)
	}
	if created.ExtractedText != nil {
		t.Fatalf("expected no extracted text for a text file")
	}

	resp := s.do(httptest.NewRequest(http.MethodGet, "/api/files/download/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Body.String() != "hello world" {
		t.Fatalf("unexpected body: %q", resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if got := resp.Header().Get("Content-Length"); got != "11" {
		t.Fatalf("unexpected content length: %s", got)
	}
	_, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
	if err != nil || params["filename"] != "hello.txt" {
		t.Fatalf("unexpected disposition: %q (%v)", resp.Header().Get("Content-Disposition"), err)
	}
}

func TestHandlerDownloadDispositionSurvivesHostileNames(t *testing.T) {
	s := newTestServer(t, 0)

	for _, name := range []string{`résumé "final".pdf`, "a;b=c.txt", "報告.txt"} {
		created := s.uploadFile(t, "u1", name, "", []byte("x"))

		resp := s.do(httptest.NewRequest(http.MethodGet, "/api/files/download/"+created.ID, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		disposition, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
		if err != nil {
			t.Fatalf("parse disposition for %q: %v", name, err)
		}
		if disposition != "attachment" || params["filename"] != name {
			t.Fatalf("expected filename %q, got %q", name, params["filename"])
		}
	}
}

func TestHandlerByName(t *testing.T) {
	s := newTestServer(t, 0)
	s.uploadFile(t, "u2", "x.txt", "text/plain", []byte("first"))
	s.uploadFile(t, "u2", "x.txt", "text/plain", []byte("second"))

	list := s.do(httptest.NewRequest(http.MethodGet, "/api/files/u2", nil))
	if list.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", list.Code)
	}
	var records []FileResponse
	if err := json.NewDecoder(list.Body).Decode(&records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	target := "/api/files/u2/by-name?fileName=" + url.QueryEscape("x.txt")
	first := s.do(httptest.NewRequest(http.MethodGet, target, nil))
	second := s.do(httptest.NewRequest(http.MethodGet, target, nil))
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("by-name lookup is not deterministic")
	}

	legacy := s.do(httptest.NewRequest(http.MethodGet, "/api/files/download/u2/by-name?fileName="+url.QueryEscape("x.txt"), nil))
	if legacy.Code != http.StatusOK {
		t.Fatalf("expected 200 on /download/{userId}/by-name, got %d", legacy.Code)
	}
	if legacy.Body.String() != first.Body.String() {
		t.Fatalf("expected the same file on both by-name routes, got %q and %q", legacy.Body.String(), first.Body.String())
	}
	if got := legacy.Header().Get("Content-Disposition"); !strings.Contains(got, "x.txt") {
		t.Fatalf("unexpected disposition %q", got)
	}

	missing := s.do(httptest.NewRequest(http.MethodGet, "/api/files/u2/by-name?fileName=nope.txt", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
	noName := s.do(httptest.NewRequest(http.MethodGet, "/api/files/u2/by-name", nil))
	if noName.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", noName.Code)
	}
}

func TestHandlerListEmpty(t *testing.T) {
	s := newTestServer(t, 0)

	resp := s.do(httptest.NewRequest(http.MethodGet, "/api/files/nobody", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestHandlerText(t *testing.T) {
	s := newTestServer(t, 0)
	pdf := s.uploadFile(t, "u1", "report.pdf", "application/pdf", []byte("%PDF"))
	png := s.uploadFile(t, "u1", "photo.png", "image/png", []byte{0x89})

	resp := s.do(httptest.NewRequest(http.MethodGet, "/api/files/text/"+pdf.ID, nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "pdf text" {
		t.Fatalf("expected 200 with text, got %d %q", resp.Code, resp.Body.String())
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type: %s", resp.Header().Get("Content-Type"))
	}

	resp = s.do(httptest.NewRequest(http.MethodGet, "/api/files/text/"+png.ID, nil))
	if resp.Code != http.StatusNoContent || resp.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", resp.Code, resp.Body.String())
	}

	resp = s.do(httptest.NewRequest(http.MethodGet, "/api/files/text/missing", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandlerDownloadErrors(t *testing.T) {
	s := newTestServer(t, 0)

	resp := s.do(httptest.NewRequest(http.MethodGet, "/api/files/download/missing", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	created := s.uploadFile(t, "u1", "gone.txt", "", []byte("x"))
	s.blobs.delete(created.StorageKey)

	resp = s.do(httptest.NewRequest(http.MethodGet, "/api/files/download/"+created.ID, nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "store_inconsistency" {
		t.Fatalf("expected store_inconsistency, got %q", body.Error.Code)
	}
}

func TestHandlerUploadAtExactLimit(t *testing.T) {
	s := newTestServer(t, 64)

	created := s.uploadFile(t, "u1", "edge.bin", "", bytes.Repeat([]byte("x"), 64))
	if created.FileSize != 64 {
		t.Fatalf("expected fileSize 64, got %d", created.FileSize)
	}
}

func TestHandlerUploadErrors(t *testing.T) {
	s := newTestServer(t, 64)

	resp := s.do(multipartRequest(t, "/api/files/u1/upload", "big.bin", "", bytes.Repeat([]byte("x"), 1024)))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "file exceeds the limit of 64 bytes") {
		t.Fatalf("unexpected 413 body: %s", resp.Body.String())
	}

	resp = s.do(multipartRequest(t, "/api/files/u1/upload", "edge.bin", "", bytes.Repeat([]byte("x"), 65)))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 one byte over the limit, got %d", resp.Code)
	}

	huge := s.do(multipartRequest(t, "/api/files/u1/upload", "huge.bin", "", bytes.Repeat([]byte("x"), multipartOverhead+1024)))
	if huge.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for an oversized body, got %d", huge.Code)
	}
	if !strings.Contains(huge.Body.String(), "request body exceeds") {
		t.Fatalf("unexpected 413 body: %s", huge.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/files/u1/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	resp = s.do(req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file part, got %d", resp.Code)
	}

	failing := newTestServer(t, 0)
	failing.blobs.putErr = errBoom
	resp = failing.do(multipartRequest(t, "/api/files/u1/upload", "a.txt", "", []byte("x")))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on blob failure, got %d", resp.Code)
	}
}
