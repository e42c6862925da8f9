package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

// Notifier posts support-desk messages into a chat. Messages carry the
// CustomerService sender id so the pipeline ignores them.
type Notifier struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewNotifier(store repository.Store, log *zap.Logger) *Notifier {
	return &Notifier{store: store, log: log, now: time.Now}
}

// Send writes an assistant message to chatID and returns the new message id.
// It fails with repository.ErrNotFound when the chat does not exist.
func (n *Notifier) Send(ctx context.Context, chatID, content, imageURL string) (string, error) {
	var chat models.Chat
	if err := n.store.Get(ctx, models.CollectionChats, chatID, &chat); err != nil {
		return "", err
	}
	msg := models.Message{
		ChatID:    chatID,
		Role:      models.RoleAssistant,
		Content:   content,
		Location:  chat.Location,
		SenderID:  models.SenderCustomerService,
		ImageURL:  imageURL,
		CreatedAt: n.now().UTC(),
	}
	id := utils.NewDocumentID()
	if err := n.store.Create(ctx, models.CollectionMessages, id, msg); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	n.log.Info("support message sent", zap.String("chat_id", chatID), zap.String("message_id", id))
	return id, nil
}

func bookingServiceName(d *models.BookingDetails) string {
	name := d.ServiceName
	if name == "" {
		name = ServiceName(d.TypeOfService)
	}
	if d.TypeOfService == "other" && d.OtherSpecify != "" {
		name = name + " - " + d.OtherSpecify
	}
	return name
}

// ServiceRequestText is sent when a request is logged but not yet paid.
func ServiceRequestText(d *models.BookingDetails) string {
	var b strings.Builder
	b.WriteString("We've logged your request, and it's all set on our end.\n\n")
	fmt.Fprintf(&b, "Service: %s\n\n", bookingServiceName(d))
	b.WriteString("To move ahead, follow these steps in the app:\n\n")
	b.WriteString("Profile -> Cart -> My Order\n\n")
	b.WriteString("- Profile: check or update your details\n")
	b.WriteString("- Cart: place your order\n")
	b.WriteString("- My Order: track the status once your order is placed\n\n")
	b.WriteString("Our team will take it from here and keep you updated. If you need any help, just let me know.")
	return b.String()
}

// BookingConfirmationText is sent once an order exists.
func BookingConfirmationText(d *models.BookingDetails, total int) string {
	serviceType := d.TypeOfService
	if serviceType == "" {
		serviceType = "Service"
	}
	date := d.DateOfTravel
	if date == "" {
		date = "N/A"
	}
	slot := "N/A"
	if d.TimeSlot != nil && d.TimeSlot.Label != "" {
		slot = d.TimeSlot.Label
	}

	var b strings.Builder
	b.WriteString("Booking Confirmed!\n\n")
	fmt.Fprintf(&b, "Service Type: %s\n", serviceType)
	fmt.Fprintf(&b, "Service: %s\n", bookingServiceName(d))
	fmt.Fprintf(&b, "Total Amount: ₹%d\n", total)
	fmt.Fprintf(&b, "Date: %s\n", date)
	fmt.Fprintf(&b, "Time Slot: %s\n\n", slot)
	b.WriteString("Your booking has been confirmed! Thank you for choosing our service.")
	return b.String()
}
