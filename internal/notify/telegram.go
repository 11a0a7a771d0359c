package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"donationFulfillment/models"
)

// TelegramNotifier delivers alerts to a coordination chat. Admin escalations
// and offer/assignment updates all land in the same chat; volunteers watch it
// the way the coordinators do.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier connects to the Bot API with the given token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

func (n *TelegramNotifier) CascadeExhausted(_ context.Context, d *models.Donation, attempted []int64) error {
	text := fmt.Sprintf("⚠️ Action required: donation #%d from donor %d has no accepting volunteer.\nAttempted: %s\nPlease assign manually.",
		d.ID, d.DonorID, formatIDs(attempted))
	return n.send(text)
}

func (n *TelegramNotifier) OfferCreated(_ context.Context, o *models.Offer, d *models.Donation) error {
	text := fmt.Sprintf("📦 New delivery offer for volunteer %d: donation #%d, %.1f kg (~%d meals). Respond before %s.",
		o.VolunteerID, d.ID, d.TotalWeightKg, d.EstimatedMeals(), o.ExpiresAt)
	return n.send(text)
}

func (n *TelegramNotifier) VolunteerAssigned(_ context.Context, d *models.Donation, volunteerID int64) error {
	text := fmt.Sprintf("✅ Donation #%d: volunteer %d accepted the delivery.", d.ID, volunteerID)
	return n.send(text)
}

func (n *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
