package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

// wecomMaxBytes is the provider's hard limit on markdown message bodies.
const wecomMaxBytes = 4096

// WeCom delivers markdown messages to named WeCom (Enterprise WeChat)
// webhook bots
type WeCom struct {
	bots    map[string]string
	order   []string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewWeCom creates a WeCom channel from the configured bots. The rate
// limiter stays under the provider's 20 messages/minute per-bot cap.
func NewWeCom(bots []config.Bot, log *logger.Logger) *WeCom {
	w := &WeCom{
		bots:    make(map[string]string, len(bots)),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		logger:  log,
	}
	for _, b := range bots {
		w.bots[b.Name] = b.WebhookURL
		w.order = append(w.order, b.Name)
	}
	return w
}

// Send delivers the markdown payload to the named bots, or to every
// configured bot when no names are given. Unknown names are skipped and
// produce no result entry. Each bot is attempted independently.
func (w *WeCom) Send(ctx context.Context, markdown string, names ...string) map[string]bool {
	results := make(map[string]bool)
	for _, name := range w.targets(names) {
		err := w.sendOne(ctx, name, markdown)
		ok := err == nil
		if err != nil {
			w.logger.WithFields(map[string]interface{}{
				"bot": name,
			}).ErrorWithErr(err, "Failed to send wecom message")
		}
		results[name] = ok
		metrics.RecordDelivery("wecom", ok)
	}
	return results
}

func (w *WeCom) targets(names []string) []string {
	if len(names) == 0 {
		return w.order
	}
	var out []string
	for _, name := range names {
		if _, ok := w.bots[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (w *WeCom) sendOne(ctx context.Context, name, markdown string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"content": truncateBytes(markdown, wecomMaxBytes),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.bots[name], bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode webhook response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message: %d %s", result.ErrCode, result.ErrMsg)
	}

	return nil
}

// truncateBytes cuts s to at most limit bytes without splitting a rune.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
