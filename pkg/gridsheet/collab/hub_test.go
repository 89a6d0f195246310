package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, sub *Subscriber) Frame {
	t.Helper()
	select {
	case data, ok := <-sub.Frames():
		require.True(t, ok, "channel closed")
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func assertEmpty(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case data := <-sub.Frames():
		t.Fatalf("unexpected frame %s", data)
	default:
	}
}

func TestSubscribeWelcomeAndJoin(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	a := hub.Subscribe(ctx, "doc")
	welcome := next(t, a)
	assert.Equal(t, FrameConnected, welcome.Type)
	assert.Equal(t, "doc", welcome.DocumentID)
	assert.Equal(t, a.Name(), welcome.Identity)
	assert.True(t, strings.HasPrefix(a.Name(), "User "))
	assert.Len(t, a.Name(), len("User ")+8)
	assert.Equal(t, a.Color(), welcome.Color)
	require.Len(t, welcome.Presence, 1)

	b := hub.Subscribe(ctx, "doc")
	assert.Len(t, next(t, b).Presence, 2)
	joined := next(t, a)
	assert.Equal(t, FrameUserJoined, joined.Type)
	assert.Equal(t, b.Name(), joined.Identity)
	assertEmpty(t, b)
	assert.NotEqual(t, a.Color(), b.Color())
}

func TestCellChangeExcludesSender(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a := hub.Subscribe(ctx, "doc")
	b := hub.Subscribe(ctx, "doc")
	c := hub.Subscribe(ctx, "doc")
	other := hub.Subscribe(ctx, "other")
	for _, sub := range []*Subscriber{a, b, c, other} {
		for len(sub.Frames()) > 0 {
			<-sub.Frames()
		}
	}

	err := hub.Receive(ctx, a, []byte(`{"type":"cellChange","row":1,"col":2,"value":"42","identity":"spoofed"}`))
	require.NoError(t, err)

	for _, sub := range []*Subscriber{b, c} {
		f := next(t, sub)
		assert.Equal(t, FrameCellChange, f.Type)
		assert.Equal(t, a.Name(), f.Identity)
		assert.Equal(t, a.ID(), f.UserID)
		assert.Equal(t, uint32(1), *f.Row)
		assert.Equal(t, uint32(2), *f.Col)
		assert.Equal(t, "42", *f.Value)
		assert.False(t, f.Timestamp.IsZero())
	}
	assertEmpty(t, a)
	assertEmpty(t, other)
}

func TestReceiveRejectsBadFrames(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a := hub.Subscribe(ctx, "doc")

	for _, raw := range []string{
		`not json`,
		`{"type":"connected"}`,
		`{"type":"cellChange","row":1}`,
		`{"type":"cursor","col":1}`,
		`{"type":"selection"}`,
	} {
		assert.Error(t, hub.Receive(ctx, a, []byte(raw)), raw)
	}
}

func TestUnsubscribeEvictsIdleDocument(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a := hub.Subscribe(ctx, "doc")
	b := hub.Subscribe(ctx, "doc")
	next(t, a)
	next(t, a)

	hub.Unsubscribe(ctx, b)
	left := next(t, a)
	assert.Equal(t, FrameUserLeft, left.Type)
	assert.Equal(t, b.Name(), left.Identity)
	_, open := <-b.Frames()
	for open {
		_, open = <-b.Frames()
	}
	assert.Equal(t, 1, hub.Documents())

	hub.Unsubscribe(ctx, a)
	hub.Unsubscribe(ctx, a)
	assert.Zero(t, hub.Documents())
	assert.Empty(t, hub.Presence("doc"))
}

func TestSlowSubscriberDropsFrames(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(WithBuffer(2))
	slow := hub.Subscribe(ctx, "doc")
	fast := hub.Subscribe(ctx, "doc")
	// slow now holds the welcome and fast's join; its buffer is full.
	next(t, fast)

	require.NoError(t, hub.Receive(ctx, fast, []byte(`{"type":"cursor","row":0,"col":0}`)))
	assert.Len(t, slow.Frames(), 2)
	assert.Equal(t, FrameConnected, next(t, slow).Type)
	assert.Equal(t, FrameUserJoined, next(t, slow).Type)
	assertEmpty(t, slow)
}

func TestPresenceTypingAndSelections(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hub := NewHub(WithNow(func() time.Time { return now }))
	a := hub.Subscribe(ctx, "doc")

	require.NoError(t, hub.Receive(ctx, a, []byte(`{"type":"cursor","row":3,"col":4}`)))
	presence := hub.Presence("doc")
	require.Len(t, presence, 1)
	assert.Equal(t, uint32(3), *presence[0].CursorRow)
	assert.Equal(t, uint32(4), *presence[0].CursorCol)

	require.NoError(t, hub.Receive(ctx, a, []byte(`{"type":"typingStart","row":1,"col":1,"worksheet_index":2}`)))
	typing := hub.Typing("doc")
	require.Len(t, typing, 1)
	assert.Equal(t, 2, typing[0].WorksheetIndex)

	now = now.Add(6 * time.Second)
	assert.Empty(t, hub.Typing("doc"))

	require.NoError(t, hub.Receive(ctx, a, []byte(`{"type":"selection","selection":{"start_row":5,"start_col":5,"end_row":1,"end_col":1}}`)))
	sels := hub.Selections("doc")
	require.Len(t, sels, 1)
	assert.Equal(t, uint32(1), sels[0].StartRow)
	assert.Equal(t, uint32(5), sels[0].EndRow)

	require.NoError(t, hub.Receive(ctx, a, []byte(`{"type":"typingStop"}`)))
	hub.Unsubscribe(ctx, a)
	assert.Empty(t, hub.Selections("doc"))
}

func TestNotifyCellChange(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a := hub.Subscribe(ctx, "doc")
	b := hub.Subscribe(ctx, "doc")
	next(t, a)
	next(t, a)
	next(t, b)

	hub.NotifyCellChange("doc", a.Name(), 0, 1, "=SUM")
	f := next(t, b)
	assert.Equal(t, FrameCellChange, f.Type)
	assert.Equal(t, a.Name(), f.Identity)
	assertEmpty(t, a)

	hub.NotifyCellChange("missing", "x", 0, 0, "")
}

func TestWebsocketRelay(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "doc")
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}
	read := func(conn *websocket.Conn) Frame {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		return f
	}

	a := dial()
	defer a.Close()
	assert.Equal(t, FrameConnected, read(a).Type)

	b := dial()
	defer b.Close()
	welcomeB := read(b)
	assert.Equal(t, FrameConnected, welcomeB.Type)
	assert.Equal(t, FrameUserJoined, read(a).Type)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"cellChange","row":0,"col":0,"value":"hi"}`)))
	f := read(b)
	assert.Equal(t, FrameCellChange, f.Type)
	assert.Equal(t, "hi", *f.Value)

	require.NoError(t, b.Close())
	left := read(a)
	assert.Equal(t, FrameUserLeft, left.Type)
	assert.Equal(t, welcomeB.Identity, left.Identity)
}
