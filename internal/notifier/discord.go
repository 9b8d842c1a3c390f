package notifier

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"go.uber.org/zap"
)

// MessageSender is the part of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifyRegistration(registration models.Registration) error {
	noteStr := ""
	if registration.DietaryRestrictions != "" {
		noteStr = fmt.Sprintf("\n**Dietary:** %s", registration.DietaryRestrictions)
	}

	message := fmt.Sprintf("🎉 **New Registration**\n**Name:** %s\n**Phone:** %s\n**Party:** %d under 5, %d aged 5-12, %d aged 12+\n**Amount due:** %d%s",
		registration.Name,
		registration.Phone,
		registration.Under5,
		registration.Age5To12,
		registration.Age12Plus,
		registration.TotalAmount,
		noteStr,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyPaymentConfirmed(registration models.Registration) error {
	message := fmt.Sprintf("💷 **Payment Received**\n**Name:** %s\n**Amount:** %d\n**Check-in code:** %s",
		registration.Name,
		registration.TotalAmount,
		registration.CodeValue(),
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyCheckIn(registration models.Registration) error {
	at := ""
	if registration.CheckInTime != nil {
		at = registration.CheckInTime.Format(time.Kitchen)
	}
	message := fmt.Sprintf("✅ **Checked In**\n**Name:** %s (%d guests)\n**By:** %s at %s",
		registration.Name,
		registration.Headcount(),
		registration.CheckInBy,
		at,
	)
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		zap.L().Warn("failed to send discord message", zap.Error(err))
		return err
	}
	return nil
}
