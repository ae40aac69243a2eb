package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Priya8975/appointment-notifier/internal/domain"
	"github.com/Priya8975/appointment-notifier/internal/subscription"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxFrameSize = 64 * 1024
)

// Dialer opens push connections to the appointment event server.
type Dialer struct {
	pushURL string
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

func NewDialer(pushURL string, logger *slog.Logger) (*Dialer, error) {
	u, err := url.Parse(strings.TrimSpace(pushURL))
	if err != nil {
		return nil, fmt.Errorf("parsing push URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported push URL scheme %q", u.Scheme)
	}
	return &Dialer{
		pushURL: u.String(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		logger: logger,
	}, nil
}

// Dial connects for subject. The office is sent as a query parameter and the
// credential as a bearer token.
func (d *Dialer) Dial(ctx context.Context, subject domain.Subject) (subscription.Conn, error) {
	u, err := url.Parse(d.pushURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("office_id", subject.OfficeID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+subject.Credential)

	conn, resp, err := d.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("push handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing push server: %w", err)
	}

	c := &pushConn{conn: conn}
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	d.logger.Debug("push connection dialed", "office_id", subject.OfficeID)
	return c, nil
}

// pushConn adapts a gorilla connection to subscription.Conn.
type pushConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

// ReadFrame returns the next text message. A normal close from the server is
// reported as io.EOF. ctx is honoured by closing the connection.
func (c *pushConn) ReadFrame(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *pushConn) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
