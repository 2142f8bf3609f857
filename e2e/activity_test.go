package e2e

import (
	"net/http"
	"testing"
)

func TestActivity_RecordsActions(t *testing.T) {
	ta := setupApp(t)

	addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)
	generateOutfit(t, ta, `{}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/activity", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["date"] == nil || result["date"] == "" {
		t.Error("expected 'date' in response")
	}

	activities, ok := result["activities"].([]interface{})
	if !ok {
		t.Fatalf("expected 'activities' array, got: %v", result["activities"])
	}

	actions := make(map[string]bool)
	for _, raw := range activities {
		rec := raw.(map[string]interface{})
		action, _ := rec["action"].(string)
		actions[action] = true
	}
	for _, want := range []string{"wardrobe_item_added", "outfit_generated"} {
		if !actions[want] {
			t.Errorf("expected action %q in today's log, got %v", want, actions)
		}
	}
}

func TestActivity_SpecificDayEmpty(t *testing.T) {
	ta := setupApp(t)

	addWardrobeItem(t, ta, `{"name": "white tee", "category": "tops"}`)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/activity?date=2020-01-01", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["date"] != "2020-01-01" {
		t.Errorf("expected requested date echoed, got %v", result["date"])
	}

	activities, ok := result["activities"].([]interface{})
	if !ok {
		t.Fatalf("expected 'activities' array even for an empty day, got: %v", result["activities"])
	}
	if len(activities) != 0 {
		t.Errorf("expected empty day, got %d records", len(activities))
	}
}

func TestActivity_BadDate(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/activity?date=yesterday", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
	if code := errorCode(t, resp); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestActivity_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/activity", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}
