package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	// no Run loop draining; the queue fills and the rest must drop
	for i := 0; i < 10; i++ {
		done := make(chan struct{})
		go func(i int) {
			hub.Publish(Frame{Index: i})
			close(done)
		}(i)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Publish blocked on frame %d", i)
		}
	}
	assert.Equal(t, cap(hub.frames), len(hub.frames))
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := New(":0", hub)
	ts := httptest.NewServer(http.HandlerFunc(srv.serveWs))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration races the first publish, so keep publishing until the
	// viewer sees a frame
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				hub.Publish(Frame{
					Index:  7,
					Time:   0.25,
					DivErr: 1e-3,
					Dims:   [3]int{2, 2, 2},
					U:      []float64{1, 2, 3, 4, 5, 6, 7, 8},
				})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got Frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 7, got.Index)
	assert.Equal(t, 0.25, got.Time)
	assert.Equal(t, [3]int{2, 2, 2}, got.Dims)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, got.U)
}
