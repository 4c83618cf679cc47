package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

const (
	maxEmbeds       = 10 // Discord limit per message
	embedColor      = 0x2F80ED
	maxTitleRunes   = 256
	maxDescRunes    = 300
	maxContentRunes = 2000
	maxFieldRunes   = 1024
)

// ErrNoWebhook means neither the task nor the environment names a webhook.
var ErrNoWebhook = errors.New("no Discord webhook configured")

type Message struct {
	Content   string  `json:"content,omitempty"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// DiscordNotifier posts imported jobs to a Discord webhook.
type DiscordNotifier struct {
	defaultWebhook string
	rateLimit      time.Duration
	lastSend       time.Time
	mu             sync.Mutex
	client         *http.Client
}

func NewDiscordNotifier(cfg config.DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		defaultWebhook: cfg.DefaultWebhook,
		rateLimit:      time.Duration(cfg.RateLimitMs) * time.Millisecond,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyImported announces jobs imported by a task. webhookURL overrides the
// default webhook when non-empty. Only the first ten jobs get an embed.
func (n *DiscordNotifier) NotifyImported(ctx context.Context, webhookURL, taskName string, jobs []model.JobRecord) error {
	if len(jobs) == 0 {
		return nil
	}
	if webhookURL == "" {
		webhookURL = n.defaultWebhook
	}
	if webhookURL == "" {
		return ErrNoWebhook
	}

	msg := BuildMessage(taskName, jobs)

	n.wait()
	if err := n.send(ctx, webhookURL, msg); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	log.Printf("Discord notification sent for %q (%d jobs) to %s", taskName, len(jobs), MaskWebhook(webhookURL))
	return nil
}

// wait blocks until the rate limit window since the last send has passed.
func (n *DiscordNotifier) wait() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if elapsed := time.Since(n.lastSend); elapsed < n.rateLimit {
		time.Sleep(n.rateLimit - elapsed)
	}
	n.lastSend = time.Now()
}

// BuildMessage renders one embed per job, capped at ten, with a summary line.
func BuildMessage(taskName string, jobs []model.JobRecord) *Message {
	msg := &Message{
		Username: "Requill",
		Content:  truncate(fmt.Sprintf("**%s**: %d new job(s) imported", taskName, len(jobs)), maxContentRunes),
	}
	if len(jobs) > maxEmbeds {
		msg.Content += fmt.Sprintf(" (showing first %d)", maxEmbeds)
	}

	for i, job := range jobs {
		if i >= maxEmbeds {
			break
		}
		msg.Embeds = append(msg.Embeds, jobEmbed(job))
	}
	return msg
}

func jobEmbed(job model.JobRecord) Embed {
	embed := Embed{
		Title:       truncate(job.Title, maxTitleRunes),
		Description: truncate(job.Description, maxDescRunes),
		URL:         job.SourceURL,
		Color:       embedColor,
	}
	if job.Platform != "" {
		embed.Footer = &EmbedFooter{Text: job.Platform}
	}
	if !job.CreatedAt.IsZero() {
		embed.Timestamp = job.CreatedAt.UTC().Format(time.RFC3339)
	}

	if job.Company != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Company", Value: truncate(job.Company, maxFieldRunes), Inline: true})
	}
	if job.Location != "" {
		loc := job.Location
		if job.IsRemote && !strings.Contains(strings.ToLower(loc), "remote") {
			loc += " (remote)"
		}
		embed.Fields = append(embed.Fields, EmbedField{Name: "Location", Value: truncate(loc, maxFieldRunes), Inline: true})
	}
	if len(job.ExtractedSkills) > 0 {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Skills", Value: truncate(strings.Join(job.ExtractedSkills, ", "), maxFieldRunes)})
	}
	return embed
}

func (n *DiscordNotifier) send(ctx context.Context, webhookURL string, message *Message) error {
	jsonBody, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("discord API error %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-3]) + "..."
}

// MaskWebhook hides the webhook token for logs.
func MaskWebhook(url string) string {
	if len(url) <= 30 {
		return "***"
	}
	return url[:30] + "***"
}
