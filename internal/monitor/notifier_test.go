package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlackNotifierPostsFormattedText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("método = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, zerolog.Nop())
	err := n.Notify(context.Background(), AlertMessage{
		Title:    "espelho pendente",
		Text:     "falha ao reverter",
		Severity: SeverityCritical,
		Fields:   map[string]string{"news_code": "N1", "active": "false"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	text := got["text"]
	if !strings.HasPrefix(text, ":rotating_light: *espelho pendente*") {
		t.Fatalf("texto = %q", text)
	}
	if strings.Index(text, "active") > strings.Index(text, "news_code") {
		t.Fatalf("campos fora de ordem: %q", text)
	}
}

func TestSlackNotifierReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := New(srv.URL, zerolog.Nop()).Notify(context.Background(), AlertMessage{Text: "x"}); err == nil {
		t.Fatal("esperava erro")
	}
}

func TestNewWithoutWebhookLogs(t *testing.T) {
	var buf strings.Builder
	n := New("", zerolog.New(&buf))
	if err := n.Notify(context.Background(), AlertMessage{Title: "t", Text: "msg", Severity: SeverityCritical}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "msg") {
		t.Fatalf("log = %s", buf.String())
	}
}
