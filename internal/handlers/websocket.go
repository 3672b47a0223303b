package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sharkjson/internal/engine"
	"sharkjson/internal/models"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 512 // buffered channel size, drops when full
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient wraps a WebSocket connection and implements engine.Client.
type WSClient struct {
	conn   *websocket.Conn
	eng    *engine.Engine
	opts   Options
	sendCh chan models.WSMessage
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWSClient creates a WSClient and registers it with the engine.
func NewWSClient(conn *websocket.Conn, eng *engine.Engine, opts Options) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &WSClient{
		conn:   conn,
		eng:    eng,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		sendCh: make(chan models.WSMessage, sendBuffer),
		done:   make(chan struct{}),
	}
	eng.RegisterClient(c)
	go c.writeLoop()
	return c
}

// SendMessage queues a message for async delivery. Non-blocking: drops if buffer full.
func (c *WSClient) SendMessage(msg models.WSMessage) error {
	select {
	case c.sendCh <- msg:
		return nil
	default:
		// Buffer full: drop the packet rather than block the loader.
		// Control messages (non-packet) get priority retry.
		if msg.Type != "packet" {
			// Force-send control messages by draining one old packet
			select {
			case <-c.sendCh:
				c.sendCh <- msg
			default:
				// Channel was drained between checks, just send
				select {
				case c.sendCh <- msg:
				default:
				}
			}
		}
		return nil
	}
}

// writeLoop drains the send channel and writes to the WebSocket.
func (c *WSClient) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case msg, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

			// Drain and batch-send any queued messages in a single write burst
			n := len(c.sendCh)
			for i := 0; i < n; i++ {
				msg = <-c.sendCh
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteJSON(msg); err != nil {
					return
				}
			}
		case <-c.done:
			return
		}
	}
}

// ReadLoop reads messages from the client and dispatches commands.
func (c *WSClient) ReadLoop() {
	defer func() {
		c.cancel()
		c.eng.UnregisterClient(c)
		close(c.done)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg models.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.handleCommand(msg)
	}
}

func (c *WSClient) handleCommand(msg models.WSMessage) {
	switch msg.Type {
	case "get_flows":
		c.sendJSON("flows", c.eng.Flows())

	case "get_stats":
		c.sendJSON("stats", c.eng.Stats())

	case "load_file":
		if !c.opts.AllowLoadFile {
			c.sendError("loading server-side files is disabled")
			return
		}
		var req models.LoadFileRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Path == "" {
			c.sendError("invalid load_file payload")
			return
		}
		// Load in the background so this client's reads keep flowing.
		go func() {
			if _, err := c.eng.LoadFile(c.ctx, req.Path); err != nil {
				c.sendError("load failed: " + err.Error())
			}
		}()

	default:
		c.sendError("unknown command: " + msg.Type)
	}
}

func (c *WSClient) sendJSON(msgType string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.sendError("encode " + msgType + ": " + err.Error())
		return
	}
	c.SendMessage(models.WSMessage{Type: msgType, Payload: payload})
}

func (c *WSClient) sendError(message string) {
	payload, _ := json.Marshal(models.ErrorPayload{Message: message})
	c.SendMessage(models.WSMessage{Type: "error", Payload: payload})
}

// HandleWebSocket is the HTTP handler for WebSocket upgrades.
func HandleWebSocket(eng *engine.Engine, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		client := NewWSClient(conn, eng, opts)
		client.ReadLoop()
	}
}
