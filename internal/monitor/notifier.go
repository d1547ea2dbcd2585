package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Severidades reconhecidas na formatação do alerta.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Notifier envia alertas para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

type AlertMessage struct {
	Title    string
	Text     string
	Severity string
	Fields   map[string]string
}

type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// New devolve o SlackNotifier quando há webhook e, caso contrário, um
// notificador que apenas registra o alerta no log.
func New(webhookURL string, logger zerolog.Logger) Notifier {
	if webhookURL == "" {
		return LogNotifier{logger: logger}
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	body, err := json.Marshal(map[string]any{"text": formatSlackMessage(msg)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack respondeu %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier escreve o alerta no logger.
type LogNotifier struct {
	logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg AlertMessage) error {
	ev := n.logger.Warn()
	if msg.Severity == SeverityCritical {
		ev = n.logger.Error()
	}
	for k, v := range msg.Fields {
		ev = ev.Str(k, v)
	}
	ev.Str("title", msg.Title).Msg(msg.Text)
	return nil
}

func formatSlackMessage(msg AlertMessage) string {
	emoji := ":information_source:"
	switch msg.Severity {
	case SeverityWarning:
		emoji = ":warning:"
	case SeverityCritical:
		emoji = ":rotating_light:"
	}
	var b bytes.Buffer
	if msg.Title != "" {
		b.WriteString(emoji + " *" + msg.Title + "*\n" + msg.Text)
	} else {
		b.WriteString(emoji + " " + msg.Text)
	}
	for _, k := range sortedKeys(msg.Fields) {
		fmt.Fprintf(&b, "\n• %s: `%s`", k, msg.Fields[k])
	}
	return b.String()
}
