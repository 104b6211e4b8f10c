package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"finsync/internal/core"
)

// DiscordNotifier posts fraud alerts to a Discord channel. It is optional;
// when no bot token is configured the service runs without it.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open Discord connection: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

// NotifyFraudAlert posts one alert. Failures are logged, not returned, so a
// Discord outage never blocks transaction writes.
func (n *DiscordNotifier) NotifyFraudAlert(ctx context.Context, a core.FraudAlert) {
	msg := fmt.Sprintf("🚨 **Fraud alert** [%s]\n%s\nAmount: %.2f\nAlert ID: %s",
		a.Severity, a.Description, a.Amount, a.ID)
	if _, err := n.session.ChannelMessageSend(n.channelID, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to send Discord fraud alert",
			"alert_id", a.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Sent Discord fraud alert", "alert_id", a.ID, "severity", a.Severity)
}

func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}
