package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"zkpay-sdk/config"
	"zkpay-sdk/metrics"
	"zkpay-sdk/models"
)

// PushMessage is the envelope the backend sends over the websocket channel.
type PushMessage struct {
	Type        string          `json:"type"` // "checkbook_update" | "allocation_update" | "withdrawal_update"
	Timestamp   string          `json:"timestamp"`
	MessageID   string          `json:"message_id"`
	UserAddress string          `json:"user_address"`
	Data        json.RawMessage `json:"data"`
}

// CheckbookUpdate carries a full checkbook snapshot on every change.
type CheckbookUpdate struct {
	Action    string            `json:"action"` // "created" | "updated" | "deleted"
	Checkbook models.Checkbook  `json:"checkbook"`
	Previous  *models.Checkbook `json:"previous,omitempty"`
}

// AllocationUpdate carries a full allocation snapshot on every change.
type AllocationUpdate struct {
	Action     string             `json:"action"`
	Allocation models.Allocation  `json:"allocation"`
	Previous   *models.Allocation `json:"previous,omitempty"`
}

// WithdrawalUpdate carries a full withdraw request snapshot.
type WithdrawalUpdate struct {
	Action     string                  `json:"action"`
	Withdrawal models.WithdrawRequest  `json:"withdrawal"`
	Previous   *models.WithdrawRequest `json:"previous,omitempty"`
}

// PushHandlers receives decoded push messages. Nil handlers skip that type.
type PushHandlers struct {
	OnCheckbook  func(*CheckbookUpdate)
	OnAllocation func(*AllocationUpdate)
	OnWithdrawal func(*WithdrawalUpdate)
}

// PushClient maintains a websocket connection to the backend's push channel
// and dispatches updates to handlers. Like the NATS feed, push is a latency
// optimization; the reconciler still confirms state over REST.
type PushClient struct {
	url      string
	handlers PushHandlers
	log      *logrus.Entry

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewPushClient builds a push client; Run starts it.
func NewPushClient(cfg *config.Config, handlers PushHandlers, log *logrus.Logger) *PushClient {
	return &PushClient{
		url:      cfg.Backend.WebSocketURL,
		handlers: handlers,
		log:      log.WithField("component", "push_client"),
	}
}

// Run connects and reads until the context is cancelled, reconnecting with a
// fixed backoff after any failure.
func (c *PushClient) Run(ctx context.Context) error {
	if c.url == "" {
		return fmt.Errorf("push channel not configured")
	}
	for {
		if err := c.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return nil
			}
			c.log.WithError(err).Warn("push connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *PushClient) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial push channel: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	metrics.PushConnectionStatus.WithLabelValues("websocket").Set(1)
	c.log.Info("push channel connected")

	defer func() {
		conn.Close()
		metrics.PushConnectionStatus.WithLabelValues("websocket").Set(0)
	}()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

func (c *PushClient) dispatch(data []byte) {
	var msg PushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.WithError(err).Warn("failed to parse push message")
		return
	}

	switch msg.Type {
	case "checkbook_update":
		metrics.PushMessagesReceived.WithLabelValues("websocket", "checkbook").Inc()
		if c.handlers.OnCheckbook == nil {
			return
		}
		var update CheckbookUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			c.log.WithError(err).Warn("failed to parse checkbook update")
			return
		}
		c.handlers.OnCheckbook(&update)
	case "allocation_update":
		metrics.PushMessagesReceived.WithLabelValues("websocket", "allocation").Inc()
		if c.handlers.OnAllocation == nil {
			return
		}
		var update AllocationUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			c.log.WithError(err).Warn("failed to parse allocation update")
			return
		}
		c.handlers.OnAllocation(&update)
	case "withdrawal_update":
		metrics.PushMessagesReceived.WithLabelValues("websocket", "withdrawal").Inc()
		if c.handlers.OnWithdrawal == nil {
			return
		}
		var update WithdrawalUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			c.log.WithError(err).Warn("failed to parse withdrawal update")
			return
		}
		c.handlers.OnWithdrawal(&update)
	default:
		c.log.WithField("type", msg.Type).Debug("ignoring push message")
	}
}

// Close shuts the connection down.
func (c *PushClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		c.conn.Close()
	}
}
