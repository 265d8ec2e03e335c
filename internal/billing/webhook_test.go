package billing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testWebhookSecret = "whsec_test"

func newWebhookRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWebhookHandler(svc, testWebhookSecret).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func deliver(r http.Handler, payload, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe-webhook", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func sign(payload string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

const updatedPayload = `{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","object":"subscription","customer":"cus_1","status":"active"}}}`

func TestWebhookAppliesSignedEvent(t *testing.T) {
	svc, repo, gw, _ := newTestService()
	gw.subs["sub_1"] = remoteSub("sub_1", "cus_1", "u1", "price_pro", stripe.SubscriptionStatusActive, fixedNow.Add(time.Hour))
	r := newWebhookRouter(svc)

	for i := 0; i < 2; i++ {
		resp := deliver(r, updatedPayload, sign(updatedPayload))
		if resp.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d: %s", i, resp.Code, resp.Body.String())
		}
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one subscription, got %d", repo.Len())
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	svc, repo, _, _ := newTestService()
	resp := deliver(newWebhookRouter(svc), updatedPayload, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, gw, _ := newTestService()
	signature := sign(updatedPayload)
	tampered := strings.Replace(updatedPayload, "cus_1", "cus_2", 1)

	resp := deliver(newWebhookRouter(svc), tampered, signature)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if gw.gets != 0 {
		t.Fatalf("unverified event must not be processed")
	}
}

func TestWebhookHandlingFailureIs500(t *testing.T) {
	svc, _, _, _ := newTestService()
	// sub_1 is unknown upstream, so the refetch fails
	resp := deliver(newWebhookRouter(svc), updatedPayload, sign(updatedPayload))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookDeletedWithoutRecord(t *testing.T) {
	svc, repo, _, _ := newTestService()
	payload := `{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_9","object":"subscription","customer":"cus_9","status":"canceled"}}}`

	resp := deliver(newWebhookRouter(svc), payload, sign(payload))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if repo.Len() != 0 {
		t.Fatalf("expected zero subscriptions, got %d", repo.Len())
	}
}

func TestWebhookUnknownEventIs200(t *testing.T) {
	svc, _, _, _ := newTestService()
	payload := `{"id":"evt_3","object":"event","type":"invoice.created","data":{"object":{"id":"in_1","object":"invoice"}}}`

	resp := deliver(newWebhookRouter(svc), payload, sign(payload))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

// largeUpdatedPayload pads updatedPayload with a description of n bytes.
func largeUpdatedPayload(n int) string {
	return strings.Replace(updatedPayload, `"status":"active"`, `"status":"active","description":"`+strings.Repeat("x", n)+`"`, 1)
}

func TestWebhookAcceptsLargeSignedEvent(t *testing.T) {
	svc, repo, gw, _ := newTestService()
	gw.subs["sub_1"] = remoteSub("sub_1", "cus_1", "u1", "price_pro", stripe.SubscriptionStatusActive, fixedNow.Add(time.Hour))
	payload := largeUpdatedPayload(70_000)

	resp := deliver(newWebhookRouter(svc), payload, sign(payload))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one subscription, got %d", repo.Len())
	}
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	svc, repo, gw, _ := newTestService()
	payload := largeUpdatedPayload(maxWebhookBody)

	resp := deliver(newWebhookRouter(svc), payload, sign(payload))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", resp.Code, resp.Body.String())
	}
	if gw.gets != 0 || repo.Len() != 0 {
		t.Fatalf("oversized event must not be processed")
	}
}
