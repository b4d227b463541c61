package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Several goroutines share one session socket (the read loop plus the graded
// event forwarder). gorilla panics on concurrent writes; the wrapper must
// serialize them.
func TestConnSerializesConcurrentWrites(t *testing.T) {
	const (
		writers          = 8
		messagesPerWrite = 25
	)

	upgrader := websocket.Upgrader{}
	serverDone := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		conn := NewConn(raw)
		defer conn.Close()

		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < messagesPerWrite; j++ {
					assert.NoError(t, conn.WriteTyped(PongResponse{Event: EventPong}))
				}
			}()
		}
		wg.Wait()
		close(serverDone)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < writers*messagesPerWrite; i++ {
		var resp PongResponse
		require.NoError(t, client.ReadJSON(&resp))
		assert.Equal(t, EventPong, resp.Event)
	}
	<-serverDone
}
