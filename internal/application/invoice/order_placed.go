package invoice

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// Notification defaults for the order confirmation
const (
	OrderPlacedTemplate = "order-placed"
	ChannelEmail        = "email"
)

// OrderPlacedEvent is delivered by the commerce platform once an order is placed
type OrderPlacedEvent struct {
	EventID string                 `json:"event_id"`
	Order   *invoice.OrderSnapshot `json:"order" binding:"required"`
}

// Attachment is a base64 encoded file sent along with a notification
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// Notification is handed to the delivery channel
type Notification struct {
	To          string         `json:"to"`
	Channel     string         `json:"channel"`
	Template    string         `json:"template"`
	Data        map[string]any `json:"data"`
	Attachments []Attachment   `json:"attachments"`
}

// Notifier delivers notifications; delivery is outside this service
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// OrderPlacedResult describes what Handle did
type OrderPlacedResult struct {
	EventID   string `json:"event_id"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// OrderPlacedHandler attaches the invoice PDF to the order confirmation
type OrderPlacedHandler struct {
	service  *Service
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	notifier Notifier
	logger   *zap.Logger
}

// NewOrderPlacedHandler creates a new OrderPlacedHandler. A nil store disables deduplication.
func NewOrderPlacedHandler(
	service *Service,
	store shared.IdempotencyStore,
	config shared.IdempotencyConfig,
	notifier Notifier,
	logger *zap.Logger,
) *OrderPlacedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &OrderPlacedHandler{
		service:  service,
		store:    store,
		config:   config,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes one order-placed event at most once per event id
func (h *OrderPlacedHandler) Handle(ctx context.Context, evt OrderPlacedEvent) (*OrderPlacedResult, error) {
	ctx, span := telemetry.Start(ctx, "order_placed", "handle")
	defer span.End()

	if err := evt.Order.Validate(); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	if strings.TrimSpace(evt.EventID) == "" {
		evt.EventID = uuid.NewString()
	}
	span.SetAttributes(
		telemetry.AttrEventID.String(evt.EventID),
		telemetry.AttrOrderID.String(evt.Order.ID),
	)
	result := &OrderPlacedResult{EventID: evt.EventID}

	marked := false
	if h.store != nil && h.config.Enabled {
		isNew, err := h.store.MarkProcessed(ctx, evt.EventID, h.config.TTL)
		switch {
		case err != nil:
			// Better to risk a duplicate email than to drop the invoice
			h.logger.Warn("Failed to check idempotency, processing anyway",
				zap.String("event_id", evt.EventID),
				zap.Error(err))
		case !isNew:
			h.logger.Debug("Duplicate order-placed event, skipping",
				zap.String("event_id", evt.EventID),
				zap.String("order_id", evt.Order.ID))
			result.Duplicate = true
			return result, nil
		default:
			marked = true
		}
	}

	invoiceID, err := h.process(ctx, evt)
	if err != nil {
		telemetry.Fail(span, err)
		if marked {
			// Let the platform redeliver the event
			if forgetErr := h.store.Forget(context.WithoutCancel(ctx), evt.EventID); forgetErr != nil {
				h.logger.Warn("Failed to release idempotency key",
					zap.String("event_id", evt.EventID),
					zap.Error(forgetErr))
			}
		}
		h.logger.Error("Order-placed handling failed",
			zap.String("event_id", evt.EventID),
			zap.String("order_id", evt.Order.ID),
			zap.Error(err))
		return nil, err
	}

	result.InvoiceID = invoiceID
	telemetry.OK(span)
	return result, nil
}

func (h *OrderPlacedHandler) process(ctx context.Context, evt OrderPlacedEvent) (string, error) {
	order := evt.Order

	inv, err := h.service.EnsureInvoice(ctx, order.ID)
	if err != nil {
		return "", err
	}

	res, err := h.service.GenerateInvoiceDocument(ctx, inv.ID, order)
	if err != nil {
		return inv.ID, err
	}

	data := map[string]any{
		"order_id":       order.ID,
		"order_number":   invoice.FormatOrderNumber(order.DisplayID),
		"invoice_id":     inv.ID,
		"invoice_number": inv.Number(),
		"currency_code":  order.CurrencyCode,
	}
	if res.ArchiveKey != "" {
		url, err := h.service.ArchiveURL(ctx, res.ArchiveKey)
		if err != nil {
			h.logger.Warn("Archived invoice has no download URL",
				zap.String("invoice_id", inv.ID),
				zap.Error(err))
		} else if url != "" {
			data["invoice_url"] = url
		}
	}

	n := Notification{
		To:       order.Email,
		Channel:  ChannelEmail,
		Template: OrderPlacedTemplate,
		Data:     data,
		Attachments: []Attachment{{
			Filename:    AttachmentFilename(order.ID),
			ContentType: "application/pdf",
			Content:     base64.StdEncoding.EncodeToString(res.PDF),
		}},
	}

	start := time.Now()
	if err := h.notifier.Send(ctx, n); err != nil {
		return inv.ID, fmt.Errorf("failed to send order confirmation: %w", err)
	}

	h.logger.Info("Order confirmation handed off",
		zap.String("order_id", order.ID),
		zap.String("invoice_id", inv.ID),
		zap.Bool("regenerated", res.Regenerated),
		zap.Duration("notify_duration", time.Since(start)))
	return inv.ID, nil
}

// AttachmentFilename is the name of the PDF attached to the confirmation
func AttachmentFilename(orderID string) string {
	return fmt.Sprintf("invoice-%s.pdf", orderID)
}

// LoggingNotifier logs a summary of each notification instead of delivering it
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a new logging notifier
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

// Send logs the notification without the attachment contents
func (n *LoggingNotifier) Send(_ context.Context, msg Notification) error {
	names := make([]string, 0, len(msg.Attachments))
	size := 0
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
		size += base64.StdEncoding.DecodedLen(len(a.Content))
	}
	n.logger.Info("Notification",
		zap.String("to", msg.To),
		zap.String("channel", msg.Channel),
		zap.String("template", msg.Template),
		zap.Any("data", msg.Data),
		zap.Strings("attachments", names),
		zap.Int("attachment_bytes", size))
	return nil
}

// Ensure LoggingNotifier implements Notifier
var _ Notifier = (*LoggingNotifier)(nil)
