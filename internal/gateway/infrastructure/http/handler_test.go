package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/application"
	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/domain"
	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/infrastructure/memory"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type panicRepo struct{ *memory.Repository }

func (panicRepo) Record(context.Context, domain.Payment, domain.Transaction) error {
	panic("disk on fire")
}

type fakeDeduper struct {
	seen      map[string]bool
	forgotten []string
}

func (d *fakeDeduper) Key(scope, key string) string { return scope + ":" + key }

func (d *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *fakeDeduper) Forget(_ context.Context, key string) error {
	delete(d.seen, key)
	d.forgotten = append(d.forgotten, key)
	return nil
}

func newServer(t *testing.T, repo application.Repository, idem Deduper, opts ...application.Option) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]application.Option{
		application.WithClock(func() time.Time { return fixedNow }),
		application.WithIDs(func() string { return "3f0c6a1e-8d2b-4c51-9a7e-2b6f1d0e4c88" }),
	}, opts...)
	svc := application.NewService(log, repo, opts...)
	srv := httptest.NewServer(NewHandler(log, svc, idem).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, header http.Header) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func get(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCreatePayment(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantMsg     string
	}{
		{"success", "", `{"recipientEmail":"a@example.com","amount":100,"currency":"USD"}`, 200, "Payment processed successfully"},
		{"missing fields", "", `{"recipientEmail":"a@example.com"}`, 400, domain.MsgMissingFields},
		{"invalid email", "", `{"recipientEmail":"nope","amount":1,"currency":"USD"}`, 400, domain.MsgInvalidEmail},
		{"negative amount", "", `{"recipientEmail":"a@example.com","amount":-1,"currency":"USD"}`, 400, domain.MsgInvalidAmount},
		{"string amount", "", `{"recipientEmail":"a@example.com","amount":"1","currency":"USD"}`, 400, domain.MsgInvalidAmount},
		{"bad currency", "", `{"recipientEmail":"a@example.com","amount":1,"currency":"JPY"}`, 400, domain.MsgUnsupportedCurrency},
		{"malformed json", "", `{"recipientEmail":`, 500, "Internal server error"},
		{"empty json body", "", ``, 400, domain.MsgMissingFields},
		{"whitespace json body", "", "  \n", 400, domain.MsgMissingFields},
		{"text body", "text/plain", `hello`, 400, domain.MsgMissingFields},
		{"form body", "application/x-www-form-urlencoded", `recipientEmail=a@example.com`, 400, domain.MsgMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, memory.NewRepository(), nil)
			var header http.Header
			if tt.contentType != "" {
				header = http.Header{"Content-Type": []string{tt.contentType}}
			}
			status, body := post(t, srv.URL+"/payments", tt.body, header)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body["message"] != tt.wantMsg {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMsg)
			}
			if body["success"] != (tt.wantStatus == 200) {
				t.Errorf("success = %v", body["success"])
			}
		})
	}
}

func TestCreatePayment_RecordsPaymentAndTransaction(t *testing.T) {
	srv := newServer(t, memory.NewRepository(), nil)
	_, body := post(t, srv.URL+"/payments", `{"recipientEmail":"a@example.com","amount":25.5,"currency":"EUR"}`, nil)

	if body["transactionId"] != "3f0c6a1e-8d2b-4c51-9a7e-2b6f1d0e4c88" {
		t.Errorf("transactionId = %v", body["transactionId"])
	}
	if body["timestamp"] != "2024-01-15T10:30:00.000Z" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}

	_, payments := get(t, srv.URL+"/payments")
	if payments["count"] != 1.0 {
		t.Fatalf("payments = %v", payments)
	}
	p := payments["payments"].([]any)[0].(map[string]any)
	if p["status"] != "completed" || p["amount"] != 25.5 || p["currency"] != "EUR" {
		t.Errorf("payment = %v", p)
	}

	_, txns := get(t, srv.URL+"/transactions")
	if txns["count"] != 1.0 {
		t.Fatalf("transactions = %v", txns)
	}
	tx := txns["transactions"].([]any)[0].(map[string]any)
	if tx["description"] != "Payment sent to a@example.com" {
		t.Errorf("transaction = %v", tx)
	}
}

func TestCreatePayment_FaultRateFailsAfterRecording(t *testing.T) {
	repo := memory.NewRepository()
	srv := newServer(t, repo, nil,
		application.WithFaultRate(0.05),
		application.WithRoll(func() float64 { return 0.01 }),
	)

	status, body := post(t, srv.URL+"/payments", `{"recipientEmail":"a@example.com","amount":1,"currency":"USD"}`, nil)
	if status != 500 || body["message"] != "Payment processing failed due to network error" {
		t.Errorf("status = %d body = %v", status, body)
	}
	payments, _ := repo.Payments(context.Background())
	if len(payments) != 1 {
		t.Errorf("payments = %d, want the failed attempt recorded", len(payments))
	}
}

func TestCreatePayment_IdempotencyKey(t *testing.T) {
	idem := &fakeDeduper{seen: map[string]bool{}}
	srv := newServer(t, memory.NewRepository(), idem)
	h := http.Header{"Idempotency-Key": []string{"abc"}}
	good := `{"recipientEmail":"a@example.com","amount":1,"currency":"USD"}`

	if status, _ := post(t, srv.URL+"/payments", good, h); status != 200 {
		t.Fatalf("first status = %d", status)
	}
	status, body := post(t, srv.URL+"/payments", good, h)
	if status != 409 || body["message"] != "Duplicate request" {
		t.Errorf("replay status = %d body = %v", status, body)
	}

	h2 := http.Header{"Idempotency-Key": []string{"bad"}}
	if status, _ := post(t, srv.URL+"/payments", `{"recipientEmail":"a@example.com"}`, h2); status != 400 {
		t.Fatalf("invalid status = %d", status)
	}
	if len(idem.forgotten) != 1 || idem.forgotten[0] != "payments:bad" {
		t.Errorf("forgotten = %v, want rejected key released", idem.forgotten)
	}
}

func TestValidate(t *testing.T) {
	srv := newServer(t, memory.NewRepository(), nil)
	tests := []struct {
		contentType string
		body        string
		status      int
		want        string
	}{
		{"application/json", `{"recipientEmail":"a@example.com","amount":1,"currency":"GBP"}`, 200, "true"},
		{"application/json; charset=utf-8", `{"recipientEmail":"a@example.com","amount":1,"currency":"GBP"}`, 200, "true"},
		{"application/json", `{"recipientEmail":"a@example.com","amount":0,"currency":"GBP"}`, 200, "false"},
		{"application/json", `{"recipientEmail":"a@example.com","amount":1,"currency":"CHF"}`, 200, "false"},
		{"application/json", ``, 200, "false"},
		{"text/plain", `{"recipientEmail":"a@example.com","amount":1,"currency":"GBP"}`, 200, "false"},
		{"application/json", `not json`, 500, "false"},
	}
	for _, tt := range tests {
		resp, err := http.Post(srv.URL+"/validate", tt.contentType, strings.NewReader(tt.body))
		if err != nil {
			t.Fatal(err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.status || strings.TrimSpace(string(raw)) != tt.want {
			t.Errorf("%s %q: %d %s, want %d %s", tt.contentType, tt.body, resp.StatusCode, raw, tt.status, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t, memory.NewRepository(), nil)
	status, body := get(t, srv.URL+"/health")
	if status != 200 || body["status"] != "healthy" {
		t.Errorf("status = %d body = %v", status, body)
	}
	if _, ok := body["uptime"].(float64); !ok {
		t.Errorf("uptime = %v", body["uptime"])
	}
}

func TestNotFound(t *testing.T) {
	srv := newServer(t, memory.NewRepository(), nil)
	status, body := get(t, srv.URL+"/nope")
	if status != 404 || body["message"] != "Endpoint not found" || body["success"] != false {
		t.Errorf("status = %d body = %v", status, body)
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	srv := newServer(t, panicRepo{memory.NewRepository()}, nil)
	status, body := post(t, srv.URL+"/payments", `{"recipientEmail":"a@example.com","amount":1,"currency":"USD"}`, nil)
	if status != 500 || body["message"] != "Internal server error" {
		t.Errorf("status = %d body = %v", status, body)
	}
}

func TestCORS(t *testing.T) {
	srv := newServer(t, memory.NewRepository(), nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
