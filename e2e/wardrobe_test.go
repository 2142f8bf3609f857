package e2e

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
)

// addWardrobeItem creates an item through the API and returns its ID.
func addWardrobeItem(t *testing.T, ta *testApp, body string) string {
	t.Helper()

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/wardrobe", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	result := parseJSON(t, resp)
	id, _ := result["id"].(string)
	if id == "" {
		t.Fatalf("expected 'id' in response, got: %v", result)
	}
	return id
}

// createMultipartImageRequest builds a multipart/form-data request with a fake photo.
func createMultipartImageRequest(t *testing.T, itemID, token, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="item.png"`)
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	// Minimal PNG signature + some data
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	_, _ = part.Write(make([]byte, 512))

	writer.Close()

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/wardrobe/%s/image", itemID), &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

func TestWardrobeAdd_Success(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/wardrobe",
		`{"name": "white tee", "category": "tops", "colors": ["white"], "style_tags": ["basic"]}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusCreated)

	result := parseJSON(t, resp)
	if result["id"] == nil || result["id"] == "" {
		t.Error("expected 'id' in response")
	}
	if result["name"] != "white tee" {
		t.Errorf("expected name 'white tee', got %v", result["name"])
	}
	if result["category"] != "tops" {
		t.Errorf("expected category tops, got %v", result["category"])
	}
	if result["wear_count"] != float64(0) {
		t.Errorf("expected wear_count 0, got %v", result["wear_count"])
	}
}

func TestWardrobeAdd_MissingName(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/wardrobe", `{"category": "tops"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	if code := errorCode(t, resp); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestWardrobeAdd_BadCategory(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/wardrobe",
		`{"name": "thing", "category": "hats"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestWardrobeList_FilterByCategory(t *testing.T) {
	ta := setupApp(t)

	addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)
	addWardrobeItem(t, ta, `{"name": "dark jeans", "category": "bottoms"}`)
	addWardrobeItem(t, ta, `{"name": "black tee", "category": "tops"}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/wardrobe", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["total"] != float64(3) {
		t.Errorf("expected total 3, got %v", result["total"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/wardrobe?category=tops", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result = parseJSON(t, resp)
	if result["total"] != float64(2) {
		t.Errorf("expected total 2 tops, got %v", result["total"])
	}
}

func TestWardrobeList_UnknownCategory(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/wardrobe?category=hats", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	if code := errorCode(t, resp); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestWardrobeUpdate_Success(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/wardrobe/"+itemID,
		`{"colors": ["off-white"], "description": "slightly cropped"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["description"] != "slightly cropped" {
		t.Errorf("expected updated description, got %v", result["description"])
	}
	// Identity fields stay fixed.
	if result["name"] != "white tee" {
		t.Errorf("expected name unchanged, got %v", result["name"])
	}
}

func TestWardrobeUpdate_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/wardrobe/nope", `{"description": "x"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
	if code := errorCode(t, resp); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %q", code)
	}
}

func TestWardrobeWear_IncrementsCount(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	for i := 1; i <= 2; i++ {
		resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/wardrobe/"+itemID+"/wear", "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusOK)

		result := parseJSON(t, resp)
		if result["wear_count"] != float64(i) {
			t.Errorf("expected wear_count %d, got %v", i, result["wear_count"])
		}
	}
}

func TestWardrobeRemove_Success(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodDelete, "/api/wardrobe/"+itemID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/wardrobe", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	result := parseJSON(t, resp)
	if result["total"] != float64(0) {
		t.Errorf("expected empty wardrobe after delete, got %v", result["total"])
	}
}

func TestWardrobeRemove_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodDelete, "/api/wardrobe/nope", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestWardrobeUploadImage_Success(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	req := createMultipartImageRequest(t, itemID, generateToken(t), "image/png")
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	url, _ := result["image_url"].(string)
	if url == "" {
		t.Fatalf("expected 'image_url' in response, got: %v", result)
	}
}

func TestWardrobeUploadImage_WrongType(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	req := createMultipartImageRequest(t, itemID, generateToken(t), "text/plain")
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestWardrobeUploadImage_MissingFile(t *testing.T) {
	ta := setupApp(t)

	itemID := addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.Close()

	req, _ := http.NewRequest(http.MethodPost, "/api/wardrobe/"+itemID+"/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+generateToken(t))

	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestWardrobeUploadImage_ItemNotFound(t *testing.T) {
	ta := setupApp(t)

	req := createMultipartImageRequest(t, "nope", generateToken(t), "image/png")
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestWardrobe_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/wardrobe", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}
