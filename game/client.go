package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256

	// One command per second steady state, small burst for create+join flows.
	commandRate  = 1
	commandBurst = 5

	commandTimeout = 5 * time.Second
)

// Client is one websocket connection. Its uuid doubles as the player id in
// every room document the connection touches.
type Client struct {
	id      string
	conn    *websocket.Conn
	limiter *rate.Limiter
	log     zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(conn *websocket.Conn, log zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		conn:    conn,
		limiter: rate.NewLimiter(commandRate, commandBurst),
		log:     log.With().Str("player", id).Logger(),
		send:    make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues an event for delivery. Never blocks: a full buffer means the
// client is too slow and the frame is dropped.
func (c *Client) Send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("failed to marshal envelope")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warn().Str("event", event).Msg("send buffer full, dropping frame")
	}
}

func (c *Client) SendError(message string) {
	c.Send(EventErrorMessage, ErrorMessage{Message: message})
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump owns all writes on the connection: queued frames plus periodic
// pings. Runs until the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump reads command frames and dispatches them into the service until
// the connection drops, then runs disconnect cleanup.
func (c *Client) ReadPump(svc *Service) {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		svc.Disconnect(ctx, c)
		cancel()
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		if !c.limiter.Allow() {
			c.log.Debug().Msg("rate limit exceeded, dropping command")
			continue
		}

		var envelope Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			c.SendError("malformed message")
			continue
		}

		c.dispatch(svc, envelope)
	}
}

func (c *Client) dispatch(svc *Service, envelope Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch envelope.Event {
	case CmdCreateGame:
		var p CreateGamePayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.CreateGame(ctx, c, p)
	case CmdJoinGame:
		var p JoinGamePayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.JoinGame(ctx, c, p)
	case CmdStartGame:
		var p StartGamePayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.StartGame(ctx, c, p)
	case CmdSubmitSecret:
		var p SubmitSecretPayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.SubmitSecret(ctx, c, p)
	case CmdSubmitGuess:
		var p SubmitGuessPayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.SubmitGuess(ctx, c, p)
	case CmdResetGame:
		var p ResetGamePayload
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			c.SendError("malformed message")
			return
		}
		svc.ResetGame(ctx, c, p)
	default:
		c.SendError("unknown event")
	}
}
