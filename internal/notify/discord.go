package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/luckytyphlosion/countdown-notifs/internal/config"
	"github.com/luckytyphlosion/countdown-notifs/internal/status"
)

// Discord posts status changes to a webhook and mentions the roles subscribed
// to every player count reached since the last announcement.
type Discord struct {
	endpoint string
	username string
	roles    []string
	client   *http.Client

	// player count as of the last successful post
	prevCount int
}

type discordPayload struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// NewDiscord builds a Discord notifier from cfg.
func NewDiscord(cfg *config.DiscordConfig) (*Discord, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	endpoint, err := withWait(cfg.WebhookURL)
	if err != nil {
		return nil, err
	}
	username := cfg.Username
	if username == "" {
		username = config.DefaultDiscordUsername
	}
	return &Discord{
		endpoint: endpoint,
		username: username,
		roles:    append([]string(nil), cfg.Roles...),
		client:   &http.Client{Timeout: webhookTimeout},
	}, nil
}

// Name returns the notifier backend name.
func (d *Discord) Name() string { return "discord" }

// PlayerCount returns the count announced by the last successful post.
func (d *Discord) PlayerCount() int { return d.prevCount }

// Mentions joins the roles for every count in [prev, next). It is empty unless
// the count went up.
func (d *Discord) Mentions(prev, next int) string {
	if next <= prev {
		return ""
	}
	prev = max(prev, 0)
	next = min(next, len(d.roles))
	return strings.Join(d.roles[prev:next], " ")
}

// OnStatusChange posts the new status. A status that cannot be read as a
// player count fails before anything is sent.
func (d *Discord) OnStatusChange(ctx context.Context, s string) error {
	count, err := status.PlayerCount(s)
	if err != nil {
		return err
	}
	content := fmt.Sprintf("%s: %s", AlertTitle, s)
	if mentions := d.Mentions(d.prevCount, count); mentions != "" {
		content += "\n" + mentions
	}
	if err := postJSON(ctx, d.client, d.endpoint, discordPayload{Username: d.username, Content: content}); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	d.prevCount = count
	return nil
}
