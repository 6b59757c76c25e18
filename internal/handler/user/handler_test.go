package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	"github.com/kshitijgupta505/text-classify/internal/service/cms"
)

const testSecretKey = "test-webhook-key-0123456789abcd"

func testSecret() string {
	return "whsec_" + base64.StdEncoding.EncodeToString([]byte(testSecretKey))
}

func sign(id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecretKey))
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// fakeCMS records mutations so tests can assert on the mirror calls.
type fakeCMS struct {
	mutations int
}

func (f *fakeCMS) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/data/mutate/") {
			f.mutations++
		}
		json.NewEncoder(w).Encode(map[string]any{"result": nil})
	})
}

func setupHandler(t *testing.T) (*Handler, *fakeCMS) {
	t.Helper()
	fake := &fakeCMS{}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client := cms.NewClient(cms.Config{BaseURL: server.URL, Dataset: "production"}, zap.NewNop())
	syncer := cms.NewSyncer(client, zap.NewNop())
	return New(syncer, testSecret(), zap.NewNop()), fake
}

func signedRequest(body []byte, timestamp string, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/user-created", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", timestamp)
	req.Header.Set("svix-signature", signature)
	return req
}

func userCreatedBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"type": "user.created",
		"data": map[string]any{
			"id":                "ext-9",
			"first_name":        "Ada",
			"last_name":         "Lovelace",
			"profile_image_url": "https://img.example/a.png",
			"email_addresses": []map[string]string{
				{"email_address": "ada@example.com"},
			},
		},
	})
	return body
}

func TestWebhookValidSignature(t *testing.T) {
	handler, fake := setupHandler(t)
	body := userCreatedBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())

	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, signedRequest(body, ts, sign("msg_1", ts, body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if fake.mutations != 1 {
		t.Fatalf("expected one mirror mutation, got %d", fake.mutations)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	handler, fake := setupHandler(t)
	body := userCreatedBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())

	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, signedRequest(body, ts, "v1,AAAA"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if fake.mutations != 0 {
		t.Fatal("rejected webhook must not reach the cms")
	}
}

func TestWebhookTamperedBody(t *testing.T) {
	handler, _ := setupHandler(t)
	body := userCreatedBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	signature := sign("msg_1", ts, body)

	tampered := bytes.Replace(body, []byte("ext-9"), []byte("ext-0"), 1)
	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, signedRequest(tampered, ts, signature))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestWebhookStaleTimestamp(t *testing.T) {
	handler, _ := setupHandler(t)
	body := userCreatedBody()
	ts := fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())

	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, signedRequest(body, ts, sign("msg_1", ts, body)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestWebhookMissingHeaders(t *testing.T) {
	handler, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/user-created", bytes.NewReader(userCreatedBody()))
	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	handler, fake := setupHandler(t)
	body, _ := json.Marshal(map[string]any{"type": "user.deleted", "data": map[string]any{"id": "ext-9"}})
	ts := fmt.Sprintf("%d", time.Now().Unix())

	resp := httptest.NewRecorder()
	handler.HandleUserCreated(resp, signedRequest(body, ts, sign("msg_1", ts, body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored event, got %d", resp.Code)
	}
	if fake.mutations != 0 {
		t.Fatal("ignored event must not reach the cms")
	}
}

func TestSyncEndpoint(t *testing.T) {
	handler, fake := setupHandler(t)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), "user-1")))
		})
	})
	handler.RegisterRoutes(r)

	payload, _ := json.Marshal(map[string]string{"email": "a@example.com", "firstName": "Ada"})
	req := httptest.NewRequest(http.MethodPost, "/users/sync", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if fake.mutations != 1 {
		t.Fatalf("expected one mutation, got %d", fake.mutations)
	}
}

func TestSyncEndpointRequiresUser(t *testing.T) {
	handler, _ := setupHandler(t)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/users/sync", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
