// Package collab fans out collaboration frames between the live viewers of
// a document.
//
// Frames are transient UI notifications. They are never persisted and are
// not the write path: a cell edit must still be saved through the document
// service. Delivery is best effort; a subscriber whose buffer is full misses
// frames and should reload the document.
package collab

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const (
	// DefaultBuffer is the number of frames queued per subscriber.
	DefaultBuffer = 100
	// typingTTL bounds how long a typing indicator is reported.
	typingTTL = 5 * time.Second
)

// Hub owns the per-document subscriber sets. A document exists in the hub
// only while it has at least one subscriber. It is safe for concurrent use.
type Hub struct {
	buffer int
	now    func() time.Time

	mu   sync.Mutex
	docs map[string]*document
}

type document struct {
	subs       map[string]*Subscriber
	typing     map[string]TypingIndicator
	selections map[string]Selection
	colorSeq   int
}

// TypingIndicator reports that a collaborator is editing a cell.
type TypingIndicator struct {
	UserID         string    `json:"user_id"`
	Identity       string    `json:"identity"`
	Row            uint32    `json:"row"`
	Col            uint32    `json:"col"`
	WorksheetIndex int       `json:"worksheet_index"`
	StartedAt      time.Time `json:"started_at"`
}

// Selection is a collaborator's current selected rectangle.
type Selection struct {
	UserID         string `json:"user_id"`
	Identity       string `json:"identity"`
	Color          string `json:"color"`
	WorksheetIndex int    `json:"worksheet_index"`
	models.Rect
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber frame buffer.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithNow overrides the hub's time source.
func WithNow(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub returns an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		buffer: DefaultBuffer,
		now:    time.Now,
		docs:   make(map[string]*document),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscriber is one live connection to a document.
type Subscriber struct {
	docID string
	info  models.Collaborator
	send  chan []byte
}

// ID returns the synthetic session identity.
func (s *Subscriber) ID() string { return s.info.ID }

// Name returns the display name.
func (s *Subscriber) Name() string { return s.info.Name }

// Color returns the display color.
func (s *Subscriber) Color() string { return s.info.Color }

// DocumentID returns the document the subscriber watches.
func (s *Subscriber) DocumentID() string { return s.docID }

// Frames delivers encoded frames. It is closed by Unsubscribe.
func (s *Subscriber) Frames() <-chan []byte { return s.send }

// Subscribe joins docID under a fresh identity. The subscriber's first frame
// is a connected welcome carrying the current presence list; every other
// subscriber receives userJoined.
func (h *Hub) Subscribe(ctx context.Context, docID string) *Subscriber {
	id := uuid.NewString()
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[docID]
	if !ok {
		doc = &document{
			subs:       make(map[string]*Subscriber),
			typing:     make(map[string]TypingIndicator),
			selections: make(map[string]Selection),
		}
		h.docs[docID] = doc
	}
	sub := &Subscriber{
		docID: docID,
		info: models.Collaborator{
			ID:          id,
			Name:        "User " + id[:8],
			Color:       models.PaletteColor(doc.colorSeq),
			ConnectedAt: now,
		},
		send: make(chan []byte, h.buffer),
	}
	doc.colorSeq++
	doc.subs[id] = sub

	welcome := Frame{
		Type:       FrameConnected,
		DocumentID: docID,
		UserID:     id,
		Identity:   sub.info.Name,
		Color:      sub.info.Color,
		Presence:   doc.presence(),
		Timestamp:  now,
	}
	h.deliver(ctx, sub, h.encode(ctx, welcome))
	h.fanout(ctx, doc, id, Frame{
		Type:       FrameUserJoined,
		DocumentID: docID,
		UserID:     id,
		Identity:   sub.info.Name,
		Color:      sub.info.Color,
		Timestamp:  now,
	})
	alog.Infof(ctx, "collab: %s joined %s (%d connected)", sub.info.Name, docID, len(doc.subs))
	return sub
}

// Unsubscribe removes sub, closes its frame channel and tells the remaining
// subscribers. The document is evicted once its last subscriber leaves.
// Unsubscribing twice is a no-op.
func (h *Hub) Unsubscribe(ctx context.Context, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[sub.docID]
	if !ok || doc.subs[sub.info.ID] != sub {
		return
	}
	delete(doc.subs, sub.info.ID)
	delete(doc.typing, sub.info.ID)
	delete(doc.selections, sub.info.ID)
	close(sub.send)

	if len(doc.subs) == 0 {
		delete(h.docs, sub.docID)
		alog.Infof(ctx, "collab: %s left %s; document idle", sub.info.Name, sub.docID)
		return
	}
	h.fanout(ctx, doc, sub.info.ID, Frame{
		Type:       FrameUserLeft,
		DocumentID: sub.docID,
		UserID:     sub.info.ID,
		Identity:   sub.info.Name,
		Timestamp:  h.now(),
	})
	alog.Infof(ctx, "collab: %s left %s (%d connected)", sub.info.Name, sub.docID, len(doc.subs))
}

// Receive handles a raw frame from sub's transport: it stamps the sender's
// identity, records presence state and relays the frame to every other
// subscriber of the document.
func (h *Hub) Receive(ctx context.Context, sub *Subscriber, data []byte) error {
	f, err := ParseClientFrame(data)
	if err != nil {
		return err
	}
	now := h.now()
	f.DocumentID = sub.docID
	f.UserID = sub.info.ID
	f.Identity = sub.info.Name
	f.Color = sub.info.Color
	f.Presence = nil
	f.Timestamp = now

	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[sub.docID]
	if !ok || doc.subs[sub.info.ID] != sub {
		return nil
	}
	wsIndex := 0
	if f.WorksheetIndex != nil {
		wsIndex = *f.WorksheetIndex
	}
	switch f.Type {
	case FrameCursor:
		sub.info.CursorRow = ptr(*f.Row)
		sub.info.CursorCol = ptr(*f.Col)
	case FrameTypingStart:
		doc.typing[sub.info.ID] = TypingIndicator{
			UserID:         sub.info.ID,
			Identity:       sub.info.Name,
			Row:            *f.Row,
			Col:            *f.Col,
			WorksheetIndex: wsIndex,
			StartedAt:      now,
		}
	case FrameTypingStop:
		delete(doc.typing, sub.info.ID)
	case FrameSelection:
		doc.selections[sub.info.ID] = Selection{
			UserID:         sub.info.ID,
			Identity:       sub.info.Name,
			Color:          sub.info.Color,
			WorksheetIndex: wsIndex,
			Rect:           f.Selection.Normalize(),
		}
	}
	h.fanout(ctx, doc, sub.info.ID, f)
	return nil
}

// Broadcast sends f to every subscriber of docID except the one whose id or
// display name equals exclude.
func (h *Hub) Broadcast(ctx context.Context, docID, exclude string, f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[docID]
	if !ok {
		return
	}
	h.fanout(ctx, doc, exclude, f)
}

// NotifyCellChange broadcasts a persisted cell change made on behalf of
// identity. The named subscriber does not receive its own edit back.
func (h *Hub) NotifyCellChange(docID, identity string, row, col uint32, value string) {
	h.Broadcast(context.Background(), docID, identity, Frame{
		Type:       FrameCellChange,
		DocumentID: docID,
		Identity:   identity,
		Row:        ptr(row),
		Col:        ptr(col),
		Value:      ptr(value),
		Timestamp:  h.now(),
	})
}

// fanout must be called with h.mu held.
func (h *Hub) fanout(ctx context.Context, doc *document, exclude string, f Frame) {
	data := h.encode(ctx, f)
	if data == nil {
		return
	}
	for id, sub := range doc.subs {
		if id == exclude || sub.info.Name == exclude {
			continue
		}
		h.deliver(ctx, sub, data)
	}
}

func (h *Hub) deliver(ctx context.Context, sub *Subscriber, data []byte) {
	if data == nil {
		return
	}
	select {
	case sub.send <- data:
	default:
		alog.Warnf(ctx, "collab: dropping frame for %s on %s: buffer full", sub.info.Name, sub.docID)
	}
}

func (h *Hub) encode(ctx context.Context, f Frame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		alog.Errorf(ctx, "collab: encoding %s frame: %v", f.Type, err)
		return nil
	}
	return data
}

// Presence lists the collaborators connected to docID, oldest first.
func (h *Hub) Presence(docID string) []models.Collaborator {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[docID]
	if !ok {
		return []models.Collaborator{}
	}
	return doc.presence()
}

func (d *document) presence() []models.Collaborator {
	out := make([]models.Collaborator, 0, len(d.subs))
	for _, sub := range d.subs {
		out = append(out, sub.info)
	}
	slices.SortFunc(out, func(a, b models.Collaborator) int {
		return cmp.Or(a.ConnectedAt.Compare(b.ConnectedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Typing lists typing indicators on docID younger than five seconds.
func (h *Hub) Typing(docID string) []TypingIndicator {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []TypingIndicator{}
	doc, ok := h.docs[docID]
	if !ok {
		return out
	}
	now := h.now()
	for _, t := range doc.typing {
		if now.Sub(t.StartedAt) < typingTTL {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b TypingIndicator) int { return cmp.Compare(a.UserID, b.UserID) })
	return out
}

// Selections lists the current selections on docID.
func (h *Hub) Selections(docID string) []Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []Selection{}
	if doc, ok := h.docs[docID]; ok {
		for _, s := range doc.selections {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Selection) int { return cmp.Compare(a.UserID, b.UserID) })
	return out
}

// Documents returns the number of documents with at least one subscriber.
func (h *Hub) Documents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.docs)
}
