// Package notifier pushes club events to the studio staff's Telegram
// channel: campaign launches and the upgrade-proximity digest.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"prive-club/internal/config"
	"prive-club/internal/model"
	"prive-club/internal/service"
)

// Notifier publishes club events to the staff channel.
type Notifier interface {
	CampaignLaunched(ctx context.Context, campaign *model.Campaign) error
	NearUpgradeDigest(ctx context.Context, members []service.Member) error
}

// TelegramNotifier sends messages to a fixed admin chat. The bot is
// send-only: no poller is started, so the token is only used for outbound
// messages.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID int64
}

// NewTelegram creates a TelegramNotifier from config.
func NewTelegram(cfg *config.NotifierConfig) (*TelegramNotifier, error) {
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram notifier: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: cfg.AdminChatID}, nil
}

// CampaignLaunched announces an activated campaign.
func (n *TelegramNotifier) CampaignLaunched(_ context.Context, campaign *model.Campaign) error {
	var b strings.Builder
	title := campaign.NotifyTitle
	if title == "" {
		title = campaign.Name
	}
	fmt.Fprintf(&b, "📣 %s\n", title)
	if campaign.NotifyBody != "" {
		fmt.Fprintf(&b, "%s\n", campaign.NotifyBody)
	}
	fmt.Fprintf(&b, "Multiplier: %dx", campaign.Multiplier)
	if len(campaign.TargetTiers) > 0 {
		fmt.Fprintf(&b, " for %s", strings.Join(campaign.TargetTiers, ", "))
	}
	if campaign.EndsAt != nil {
		fmt.Fprintf(&b, "\nUntil %s", campaign.EndsAt.Format(time.DateOnly))
	}
	return n.send(b.String())
}

// NearUpgradeDigest lists members close to their next tier so the front
// desk can nudge them on their next visit.
func (n *TelegramNotifier) NearUpgradeDigest(_ context.Context, members []service.Member) error {
	if len(members) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("✨ Members close to a tier upgrade:\n")
	for _, m := range members {
		fmt.Fprintf(&b, "• %s (%s): %d points to go\n", m.Account.Name, m.Tier.Name, m.PointsToNext)
	}
	return n.send(b.String())
}

func (n *TelegramNotifier) send(text string) error {
	if _, err := n.bot.Send(&tele.Chat{ID: n.chatID}, text); err != nil {
		log.Error().Err(err).Msg("Failed to send telegram notification")
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// Nop discards every notification. Used when no notifier is configured.
type Nop struct{}

// CampaignLaunched implements Notifier.
func (Nop) CampaignLaunched(context.Context, *model.Campaign) error { return nil }

// NearUpgradeDigest implements Notifier.
func (Nop) NearUpgradeDigest(context.Context, []service.Member) error { return nil }
