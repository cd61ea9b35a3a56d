package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

var markdownChars = regexp.MustCompile("[#*`]")

// YunZhiJia delivers plain-text messages to named YunZhiJia webhook bots
type YunZhiJia struct {
	bots   map[string]string
	order  []string
	client *http.Client
	logger *logger.Logger
}

// NewYunZhiJia creates a YunZhiJia channel from the configured bots.
func NewYunZhiJia(bots []config.Bot, log *logger.Logger) *YunZhiJia {
	y := &YunZhiJia{
		bots:   make(map[string]string, len(bots)),
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}
	for _, b := range bots {
		y.bots[b.Name] = b.WebhookURL
		y.order = append(y.order, b.Name)
	}
	return y
}

// Send delivers the payload to the named bots, or all bots when no names
// are given. The payload is downconverted to plain text first; YunZhiJia
// renders markdown literally.
func (y *YunZhiJia) Send(ctx context.Context, text string, names ...string) map[string]bool {
	text = stripMarkdown(text)

	results := make(map[string]bool)
	for _, name := range y.targets(names) {
		err := y.sendOne(ctx, name, text)
		ok := err == nil
		if err != nil {
			y.logger.WithFields(map[string]interface{}{
				"bot": name,
			}).ErrorWithErr(err, "Failed to send yunzhijia message")
		}
		results[name] = ok
		metrics.RecordDelivery("yunzhijia", ok)
	}
	return results
}

func (y *YunZhiJia) targets(names []string) []string {
	if len(names) == 0 {
		return y.order
	}
	var out []string
	for _, name := range names {
		if _, ok := y.bots[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (y *YunZhiJia) sendOne(ctx context.Context, name, text string) error {
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.bots[name], bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	// YunZhiJia reports delivery outcome in the body, not the status code.
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode webhook response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("webhook rejected message: %s", result.Error)
	}

	return nil
}

// stripMarkdown downconverts a markdown payload to plain text.
func stripMarkdown(text string) string {
	text = markdownChars.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "📢", "")
	return strings.TrimSpace(text)
}
