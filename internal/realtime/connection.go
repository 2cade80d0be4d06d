package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Conn envuelve un websocket y serializa las escrituras salientes por un
// canal buffereado, de modo que el hub pueda empujar desde cualquier
// goroutine. Implementa Sink.
type Conn struct {
	ws      *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	closeMu sync.Once
}

func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Push encola el payload para entrega. Un cliente que no drena su buffer
// pierde la conexión: el backpressure se mantiene acotado.
func (c *Conn) Push(payload []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	case c.send <- payload:
		return nil
	default:
		c.Close()
		return errors.New("send buffer full")
	}
}

// Close termina la conexión y detiene el write loop.
func (c *Conn) Close() {
	c.closeMu.Do(func() {
		close(c.closed)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
