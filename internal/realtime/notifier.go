package realtime

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/changefeed"
)

// DocumentLoader fetches the current row for a change event
type DocumentLoader interface {
	Load(ctx context.Context, table string, id uuid.UUID) (any, error)
}

type route struct {
	channel Channel
	msgType MessageType
}

var routes = map[string]route{
	"sales":     {ChannelSales, MessageTypeSalesDataChanged},
	"customers": {ChannelCustomers, MessageTypeCustomerDataChanged},
	"products":  {ChannelProducts, MessageTypeProductDataChanged},
}

// Notifier relays store change events to subscribed sessions
type Notifier struct {
	hub    *Hub
	feed   changefeed.Feed
	loader DocumentLoader
	logger *logrus.Entry
}

// NewNotifier creates a notifier reading from feed
func NewNotifier(hub *Hub, feed changefeed.Feed, loader DocumentLoader, logger *logrus.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		feed:   feed,
		loader: loader,
		logger: logger.WithField("component", "realtime.notifier"),
	}
}

// Run consumes the feed until ctx is done or the feed fails. Malformed
// payloads are skipped.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info("Change notifier started")
	defer n.logger.Info("Change notifier stopped")

	for {
		ev, err := n.feed.Next(ctx)
		switch {
		case err == nil:
			n.Dispatch(ctx, ev)
		case errors.Is(err, changefeed.ErrMalformed):
			n.logger.WithError(err).Warn("Skipping malformed change event")
		case ctx.Err() != nil, errors.Is(err, changefeed.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

// Dispatch pushes one change event to its channel
func (n *Notifier) Dispatch(ctx context.Context, ev changefeed.Event) {
	r, ok := routes[ev.Collection]
	if !ok {
		n.logger.WithField("collection", ev.Collection).Debug("Ignoring change for unknown collection")
		return
	}

	var doc any
	if ev.Operation != changefeed.OperationDelete && n.loader != nil {
		loaded, err := n.loader.Load(ctx, ev.Collection, ev.DocumentID)
		if err != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{
				"collection":  ev.Collection,
				"document_id": ev.DocumentID,
			}).Warn("Failed to load changed document")
		} else {
			doc = loaded
		}
	}

	delivered := n.hub.Publish(r.channel, &OutgoingMessage{
		Type: r.msgType,
		Data: DataChangedData{
			OperationType: string(ev.Operation),
			DocumentID:    ev.DocumentID.String(),
			Timestamp:     ev.OccurredAt,
			Data:          doc,
		},
	})

	if ev.Collection == "sales" {
		n.hub.Publish(ChannelAnalytics, &OutgoingMessage{
			Type: MessageTypeDataUpdateNotification,
			Data: DataUpdateNotificationData{
				Source:    "sales",
				Type:      string(ev.Operation),
				Timestamp: n.hub.now(),
			},
		})
	}

	n.logger.WithFields(logrus.Fields{
		"collection": ev.Collection,
		"operation":  ev.Operation,
		"delivered":  delivered,
	}).Debug("Change event dispatched")
}
