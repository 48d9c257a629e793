package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// AccountUpdate is a notification that a watched account changed.
type AccountUpdate struct {
	Pubkey   string
	Slot     int64
	Lamports uint64
	Data     string // base64 encoded
}

// WSClient streams account change notifications over a Solana WebSocket
// endpoint, reconnecting and resubscribing on connection loss.
type WSClient struct {
	endpoint string
	config   WSConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to delivery channel
	subs   map[int64]chan AccountUpdate
	subsMu sync.RWMutex

	// watched stores subscribed pubkeys for resubscription after reconnect
	watched   map[int64]string
	watchedMu sync.RWMutex

	// pending maps request ID to the subscribe awaiting confirmation
	pending   map[uint64]*pendingSub
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// pendingSub carries the delivery channel through the subscribe handshake
// so the read loop registers it atomically with the confirmation. A
// notification can arrive on the wire immediately behind the confirmation;
// registering from the caller's goroutine after the handoff would drop it.
type pendingSub struct {
	pubkey  string
	deliver chan AccountUpdate
	confirm chan int64
}

// NewWSClient creates a WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[int64]chan AccountUpdate),
		watched:  make(map[int64]string),
		pending:  make(map[uint64]*pendingSub),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes the WebSocket connection.
func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeAccount subscribes to change notifications for pubkey.
func (c *WSClient) SubscribeAccount(ctx context.Context, pubkey string) (<-chan AccountUpdate, error) {
	// Buffered channel absorbs bursts; dispatch blocks rather than drops.
	ch := make(chan AccountUpdate, 1024)
	if _, err := c.subscribeAccountInternal(ctx, pubkey, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// subscribeAccountInternal sends the subscribe request and waits for the
// subscription ID. The read loop stores the channel/pubkey mappings when
// the confirmation arrives, before dispatching any later notification.
func (c *WSClient) subscribeAccountInternal(ctx context.Context, pubkey string, deliver chan AccountUpdate) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "accountSubscribe",
		Params: []interface{}{
			pubkey,
			map[string]string{"encoding": "base64", "commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = &pendingSub{pubkey: pubkey, deliver: deliver, confirm: confirmCh}
	c.pendingMu.Unlock()

	dropPending := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		dropPending()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		dropPending()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		if subID == 0 { // confirm channel closed by Close
			return 0, fmt.Errorf("client closed")
		}
		return subID, nil
	case <-time.After(30 * time.Second):
		dropPending()
		return 0, fmt.Errorf("subscription timeout after 30s")
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		dropPending()
		return 0, ctx.Err()
	}
}

// Close closes the WebSocket connection and all subscription channels.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id, sub := range c.pending {
		close(sub.confirm)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches to subscribers.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe watched accounts.
func (c *WSClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Will retry on next read error
		return
	}

	c.resubscribeAll()
}

// resubscribeAll re-establishes all watched account subscriptions after a
// reconnect, rebinding delivery channels to the new subscription IDs.
func (c *WSClient) resubscribeAll() {
	c.watchedMu.RLock()
	watched := make(map[int64]string, len(c.watched))
	for id, pk := range c.watched {
		watched[id] = pk
	}
	c.watchedMu.RUnlock()

	for oldSubID, pubkey := range watched {
		c.subsMu.RLock()
		ch := c.subs[oldSubID]
		c.subsMu.RUnlock()
		if ch == nil {
			continue
		}

		// The read loop rebinds ch to the new subscription ID when the
		// confirmation arrives; on success only the old ID needs retiring.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := c.subscribeAccountInternal(ctx, pubkey, ch)
		cancel()
		if err != nil {
			// Keep old mapping; next reconnect retries
			continue
		}

		c.subsMu.Lock()
		delete(c.subs, oldSubID)
		c.subsMu.Unlock()

		c.watchedMu.Lock()
		delete(c.watched, oldSubID)
		c.watchedMu.Unlock()
	}
}

// handleMessage processes an incoming WebSocket message.
func (c *WSClient) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.handleSubscribeResponse(&resp)
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "accountNotification" {
		c.handleAccountNotification(&notif)
		return
	}
}

// handleSubscribeResponse registers the subscription's delivery channel and
// then hands the subscription ID to the waiting caller. Registration happens
// here, on the read loop, so a notification processed next already finds
// its channel.
func (c *WSClient) handleSubscribeResponse(resp *wsSubscribeResponse) {
	c.pendingMu.Lock()
	sub, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		return // caller timed out or cancelled
	}

	c.subsMu.Lock()
	c.subs[resp.Result] = sub.deliver
	c.subsMu.Unlock()

	c.watchedMu.Lock()
	c.watched[resp.Result] = sub.pubkey
	c.watchedMu.Unlock()

	select {
	case sub.confirm <- resp.Result:
	default:
	}
}

// handleAccountNotification dispatches an account update to its subscriber.
func (c *WSClient) handleAccountNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	subID := notif.Params.Subscription
	value := notif.Params.Result.Value

	c.watchedMu.RLock()
	pubkey := c.watched[subID]
	c.watchedMu.RUnlock()

	update := AccountUpdate{
		Pubkey:   pubkey,
		Lamports: value.Lamports,
	}
	if len(value.Data) >= 1 {
		update.Data = value.Data[0]
	}
	if notif.Params.Result.Context != nil {
		update.Slot = notif.Params.Result.Context.Slot
	}

	c.subsMu.RLock()
	ch, ok := c.subs[subID]
	c.subsMu.RUnlock()

	if ok {
		// Block until delivered; watchers must not miss invalidations
		select {
		case ch <- update:
		case <-c.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in the read loop
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext     `json:"context"`
	Value   wsAccountValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsAccountValue struct {
	Lamports uint64   `json:"lamports"`
	Data     []string `json:"data"` // [base64_data, encoding]
}
