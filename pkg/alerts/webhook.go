package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"text/template"
	"time"
)

const webhookTimeout = 10 * time.Second

// EventAlert is the payload posted for one program event.
type EventAlert struct {
	Level     string `json:"level"`
	Program   string `json:"program"`
	Event     string `json:"event"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Key identifies the event stream the alert comes from.
func (a *EventAlert) Key() string {
	return a.Program + "." + a.Event
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type WebhookConfig struct {
	Enabled  bool          `json:"enabled"`
	URL      string        `json:"url"`
	Headers  []Header      `json:"headers,omitempty"`
	Template string        `json:"template,omitempty"` // text/template producing JSON, fed with .alert
	Discord  bool          `json:"discord,omitempty"`  // use DiscordTemplate when Template is empty
	Cooldown time.Duration `json:"cooldown,omitempty"` // per event stream
}

func (w *WebhookConfig) UnmarshalJSON(data []byte) error {
	type alias WebhookConfig

	aux := &struct {
		Cooldown string `json:"cooldown"`
		*alias
	}{
		alias: (*alias)(w),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.Cooldown != "" {
		d, err := time.ParseDuration(aux.Cooldown)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidCooldown, err)
		}

		w.Cooldown = d
	}

	return nil
}

// WebhookAlerter posts alerts to one URL, at most once per cooldown for a
// given event stream.
type WebhookAlerter struct {
	config WebhookConfig
	client *http.Client
	tmpl   *template.Template

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func NewWebhookAlerter(config WebhookConfig) (*WebhookAlerter, error) {
	w := &WebhookAlerter{
		config:   config,
		client:   &http.Client{Timeout: webhookTimeout},
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}

	if config.URL == "" {
		return nil, errWebhookURL
	}

	text := config.Template
	if text == "" && config.Discord {
		text = DiscordTemplate
	}

	if text != "" {
		tmpl, err := template.New("webhook").Funcs(template.FuncMap{"json": toJSON}).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errTemplateParse, err)
		}

		w.tmpl = tmpl
	}

	return w, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (w *WebhookAlerter) IsEnabled() bool {
	return w.config.Enabled
}

func (w *WebhookAlerter) Alert(ctx context.Context, alert *EventAlert) error {
	if !w.IsEnabled() {
		return errWebhookDisabled
	}

	if err := w.checkCooldown(alert.Key()); err != nil {
		return err
	}

	if alert.Timestamp == "" {
		alert.Timestamp = w.now().UTC().Format(time.RFC3339)
	}

	payload, err := w.payload(alert)
	if err != nil {
		return err
	}

	return w.send(ctx, payload)
}

func (w *WebhookAlerter) checkCooldown(key string) error {
	if w.config.Cooldown <= 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()

	if last, ok := w.lastSent[key]; ok && now.Sub(last) < w.config.Cooldown {
		return errWebhookCooldown
	}

	w.lastSent[key] = now

	return nil
}

func (w *WebhookAlerter) payload(alert *EventAlert) ([]byte, error) {
	if w.tmpl == nil {
		return json.Marshal(alert)
	}

	var buf bytes.Buffer

	if err := w.tmpl.Execute(&buf, map[string]any{"alert": alert}); err != nil {
		return nil, fmt.Errorf("%w: %w", errTemplateExecution, err)
	}

	if !json.Valid(buf.Bytes()) {
		return nil, errInvalidJSON
	}

	return buf.Bytes(), nil
}

func (w *WebhookAlerter) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	w.setHeaders(req)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close webhook response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("%w: status=%d body=%s", errWebhookStatus, resp.StatusCode, body)
	}

	return nil
}

func (w *WebhookAlerter) setHeaders(req *http.Request) {
	hasContentType := false

	for _, h := range w.config.Headers {
		if strings.EqualFold(h.Key, "content-type") {
			hasContentType = true
		}

		req.Header.Set(h.Key, h.Value)
	}

	if !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
}
