package clients

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"zkpay-sdk/chains"
	"zkpay-sdk/config"
	"zkpay-sdk/metrics"
)

// StatusEvent is one backend status-change notification. Events are a fast
// path only: subscribers still confirm the new state through the REST API
// before acting on it, so a dropped event costs latency, not correctness.
type StatusEvent struct {
	Entity        string `json:"entity"` // "checkbook" | "allocation" | "withdraw_request"
	EntityID      string `json:"entity_id"`
	Status        string `json:"status"`
	SLIP44ChainID uint32 `json:"slip44_chain_id,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
}

// EventsClient subscribes to the backend's NATS event feed. Subjects follow
// zkpay.<chain>.<entity>.<event>.
type EventsClient struct {
	conn     *nats.Conn
	registry *chains.Registry
	log      *logrus.Entry

	subs []*nats.Subscription
}

// NewEventsClient connects to the configured NATS server.
func NewEventsClient(cfg *config.Config, registry *chains.Registry, log *logrus.Logger) (*EventsClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.NATS.Timeout > 0 {
		connectTimeout = time.Duration(cfg.NATS.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.NATS.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.NATS.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.NATS.MaxReconnects > 0 {
		maxReconnects = cfg.NATS.MaxReconnects
	}

	entry := log.WithField("component", "events_client")
	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("nats disconnected")
			metrics.PushConnectionStatus.WithLabelValues("nats").Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.Info("nats reconnected")
			metrics.PushConnectionStatus.WithLabelValues("nats").Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.PushConnectionStatus.WithLabelValues("nats").Set(1)

	return &EventsClient{
		conn:     conn,
		registry: registry,
		log:      entry,
	}, nil
}

// SubscribeStatus subscribes to status-change events for one entity kind on
// all chains. entity is "checkbook", "allocation" or "withdraw_request".
func (c *EventsClient) SubscribeStatus(entity string, handler func(*StatusEvent)) error {
	subject := fmt.Sprintf("zkpay.*.%s.status", entity)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev StatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.log.WithError(err).WithField("subject", msg.Subject).Warn("failed to parse status event")
			return
		}
		if ev.SLIP44ChainID == 0 {
			ev.SLIP44ChainID = c.chainFromSubject(msg.Subject)
		}
		metrics.PushMessagesReceived.WithLabelValues("nats", entity).Inc()
		handler(&ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.log.WithField("subject", subject).Info("subscribed")
	return nil
}

// chainFromSubject extracts the SLIP-44 chain ID from the subject's chain
// name segment. Returns 0 when the name is unknown.
func (c *EventsClient) chainFromSubject(subject string) uint32 {
	parts := strings.Split(subject, ".")
	if len(parts) < 2 {
		return 0
	}
	if info, ok := c.registry.ByName(parts[1]); ok {
		return info.SLIP44ChainID
	}
	return 0
}

// Close drains all subscriptions and closes the connection.
func (c *EventsClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	metrics.PushConnectionStatus.WithLabelValues("nats").Set(0)
}
