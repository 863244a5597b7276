package handlers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// memObjects is an in-memory object store.
type memObjects struct {
	mu   sync.Mutex
	keys []string
}

func (o *memObjects) UploadObject(_ context.Context, _ []byte, filename, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, "post-images/"+filename)
	return "https://cdn.example.com/post-images/" + filename, nil
}

func (o *memObjects) DeleteObject(context.Context, string) error { return nil }

func (o *memObjects) KeyFromURL(string) (string, bool) { return "", false }

const createBody = `{"title":"Budget Session Opens","content":"Some **content**.","category":"india_national"}`

func TestAdminListUsesAdminPageSize(t *testing.T) {
	env := newUnitEnv(t, nil)
	seedPosts(env.posts, 21)

	rr := serve(env.routes(), http.MethodGet, "/api/admin/posts?page=3", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["page_size"] != float64(10) || body["total_pages"] != float64(3) {
		t.Errorf("paging: got size %v pages %v", body["page_size"], body["total_pages"])
	}
	if n := len(body["items"].([]any)); n != 1 {
		t.Errorf("items on last page: got %d, want 1", n)
	}
}

func TestAdminCreatePost(t *testing.T) {
	env := newUnitEnv(t, nil)
	h := env.routes()

	rr := serve(h, http.MethodPost, "/api/admin/posts", strings.NewReader(createBody), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body)
	}
	body := decodeBody(t, rr)
	if body["slug"] != "budget-session-opens" {
		t.Errorf("slug: got %v", body["slug"])
	}
	if body["author_name"] != "Admin" {
		t.Errorf("author_name: got %v", body["author_name"])
	}

	// The new post shows up first in the public listing.
	list := decodeBody(t, serve(h, http.MethodGet, "/api/posts", nil, nil))
	if list["total_count"] != float64(1) {
		t.Errorf("listing total: got %v", list["total_count"])
	}
}

func TestAdminCreatePostValidation(t *testing.T) {
	env := newUnitEnv(t, nil)
	rr := serve(env.routes(), http.MethodPost, "/api/admin/posts",
		strings.NewReader(`{"title":"","content":"","category":"sports"}`), nil)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rr.Code)
	}
	fields := decodeBody(t, rr)["fields"].(map[string]any)
	for _, f := range []string{"title", "content", "category"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing field error for %q in %v", f, fields)
		}
	}
}

func TestAdminUpdateAndDelete(t *testing.T) {
	env := newUnitEnv(t, nil)
	h := env.routes()

	created := decodeBody(t, serve(h, http.MethodPost, "/api/admin/posts", strings.NewReader(createBody), nil))
	id := created["id"].(string)

	update := `{"title":"Budget Session Closes","slug":"budget-session-opens","content":"Done.","category":"india_regional","author_name":"Desk"}`
	rr := serve(h, http.MethodPut, "/api/admin/posts/"+id, strings.NewReader(update), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status: got %d: %s", rr.Code, rr.Body)
	}
	if body := decodeBody(t, rr); body["category"] != "india_regional" || body["author_name"] != "Desk" {
		t.Errorf("update body: got %v", body)
	}

	if rr := serve(h, http.MethodDelete, "/api/admin/posts/"+id, nil, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d", rr.Code)
	}
	if rr := serve(h, http.MethodDelete, "/api/admin/posts/"+id, nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rr.Code)
	}
	if rr := serve(h, http.MethodPut, "/api/admin/posts/"+id, strings.NewReader(update), nil); rr.Code != http.StatusNotFound {
		t.Errorf("update of deleted post: got %d, want 404", rr.Code)
	}
}

func TestAdminBadPostID(t *testing.T) {
	env := newUnitEnv(t, nil)
	rr := serve(env.routes(), http.MethodDelete, "/api/admin/posts/not-a-uuid", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "cover.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAdminUploadImage(t *testing.T) {
	objects := &memObjects{}
	env := newUnitEnv(t, objects)

	body, ct := multipartImage(t, "file", pngImage(t))
	rr := serve(env.routes(), http.MethodPost, "/api/admin/uploads", body, map[string]string{"Content-Type": ct})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body)
	}
	url, _ := decodeBody(t, rr)["url"].(string)
	if !strings.HasPrefix(url, "https://cdn.example.com/post-images/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url: got %q", url)
	}
	if len(objects.keys) != 1 {
		t.Errorf("stored objects: got %d, want 1", len(objects.keys))
	}
}

func TestAdminUploadRejects(t *testing.T) {
	env := newUnitEnv(t, &memObjects{})
	h := env.routes()

	body, ct := multipartImage(t, "file", []byte("just some text"))
	rr := serve(h, http.MethodPost, "/api/admin/uploads", body, map[string]string{"Content-Type": ct})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("text upload: got %d, want 422", rr.Code)
	}

	body, ct = multipartImage(t, "other", pngImage(t))
	rr = serve(h, http.MethodPost, "/api/admin/uploads", body, map[string]string{"Content-Type": ct})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing file field: got %d, want 422", rr.Code)
	}

	rr = serve(h, http.MethodPost, "/api/admin/uploads", strings.NewReader("{}"), map[string]string{"Content-Type": "application/json"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-multipart: got %d, want 400", rr.Code)
	}
}

func TestAdminUploadStorageDisabled(t *testing.T) {
	env := newUnitEnv(t, nil)
	body, ct := multipartImage(t, "file", pngImage(t))
	rr := serve(env.routes(), http.MethodPost, "/api/admin/uploads", body, map[string]string{"Content-Type": ct})
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rr.Code)
	}
}
