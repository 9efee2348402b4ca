package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDial_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "empty host", cfg: Config{Kind: KindWebSocket, Port: 3000}},
		{name: "port too low", cfg: Config{Kind: KindWebSocket, Host: "localhost", Port: 0}},
		{name: "port too high", cfg: Config{Kind: KindWebSocket, Host: "localhost", Port: 70000}},
		{name: "unknown kind", cfg: Config{Kind: "carrier-pigeon", Host: "localhost", Port: 3000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Dial(context.Background(), tc.cfg, discardLogger())
			require.Error(t, err)
		})
	}
}

// wsEchoServer upgrades connections, records inbound frames and pushes
// one motor burst to every client.
func wsEchoServer(t *testing.T, motorPayload []byte, inbound chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		if motorPayload != nil {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, motorPayload))
		}
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			inbound <- payload
		}
	}))
}

func hostPort(t *testing.T, srv *httptest.Server) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestWebSocketChannel_SendAndReceive(t *testing.T) {
	t.Parallel()

	inbound := make(chan []byte, 1)
	motor := []byte(`{"motor": {"0": 0.5}}`)
	srv := wsEchoServer(t, motor, inbound)
	defer srv.Close()

	host, port := hostPort(t, srv)
	ch, err := Dial(context.Background(), Config{
		Kind:    KindWebSocket,
		Host:    host,
		Port:    port,
		AgentID: "test_agent",
	}, discardLogger())
	require.NoError(t, err)
	defer ch.Close()

	// Inbound motor burst arrives on Receive.
	select {
	case payload := <-ch.Receive():
		assert.JSONEq(t, string(motor), string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for motor burst")
	}

	// Outbound sensory burst reaches the server.
	sensory := []byte(`{"data": {"sensory_data": {}}}`)
	require.NoError(t, ch.Send(context.Background(), sensory))
	select {
	case payload := <-inbound:
		assert.JSONEq(t, string(sensory), string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sensory burst")
	}
}

func TestWebSocketChannel_SendAfterCancel(t *testing.T) {
	t.Parallel()

	inbound := make(chan []byte, 1)
	srv := wsEchoServer(t, nil, inbound)
	defer srv.Close()

	host, port := hostPort(t, srv)
	ch, err := Dial(context.Background(), Config{Kind: KindWebSocket, Host: host, Port: port}, discardLogger())
	require.NoError(t, err)
	defer ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, ch.Send(ctx, []byte(`{}`)))
}

func TestWebSocketChannel_CloseStopsReceive(t *testing.T) {
	t.Parallel()

	inbound := make(chan []byte, 1)
	srv := wsEchoServer(t, nil, inbound)
	defer srv.Close()

	host, port := hostPort(t, srv)
	ch, err := Dial(context.Background(), Config{Kind: KindWebSocket, Host: host, Port: port}, discardLogger())
	require.NoError(t, err)

	require.NoError(t, ch.Close())

	select {
	case _, open := <-ch.Receive():
		assert.False(t, open, "receive channel closes after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("receive channel did not close")
	}
}

func TestDial_WebSocketRefused(t *testing.T) {
	t.Parallel()

	// Grab a port nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	port, _ := strconv.Atoi(portStr)

	_, err = Dial(context.Background(), Config{Kind: KindWebSocket, Host: "127.0.0.1", Port: port}, discardLogger())
	require.Error(t, err)
}

func TestSocketIOChannel_DeliverDuringShutdown(t *testing.T) {
	t.Parallel()

	ch := &socketIOChannel{
		recv:   make(chan []byte, 4),
		logger: discardLogger(),
	}

	// Hammer the delivery path from several goroutines while the channel
	// shuts down; a send racing the close must be dropped, never panic.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ch.deliver([]byte(`{"data":{"motor_data":{}}}`))
			}
		}()
	}
	ch.closeRecv()
	wg.Wait()

	// Late deliveries after shutdown are silently dropped.
	ch.deliver([]byte(`{"late":true}`))

	// The queue drains whatever landed before the close, then reads as
	// closed.
	for range ch.recv {
	}
}
