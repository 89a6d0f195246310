package collab

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// Frame types.
const (
	// Server to client.
	FrameConnected  = "connected"
	FrameUserJoined = "userJoined"
	FrameUserLeft   = "userLeft"

	// Relayed in both directions.
	FrameCellChange  = "cellChange"
	FrameCursor      = "cursor"
	FrameTypingStart = "typingStart"
	FrameTypingStop  = "typingStop"
	FrameSelection   = "selection"
)

// relayed lists the client frame types the hub accepts and re-broadcasts.
var relayed = map[string]bool{
	FrameCellChange:  true,
	FrameCursor:      true,
	FrameTypingStart: true,
	FrameTypingStop:  true,
	FrameSelection:   true,
}

// Frame is one collaboration message. Identity, color and timestamp are
// always filled in by the server; values sent by clients are overwritten.
type Frame struct {
	Type           string                `json:"type"`
	DocumentID     string                `json:"document_id,omitempty"`
	UserID         string                `json:"user_id,omitempty"`
	Identity       string                `json:"identity,omitempty"`
	Color          string                `json:"color,omitempty"`
	WorksheetIndex *int                  `json:"worksheet_index,omitempty"`
	Row            *uint32               `json:"row,omitempty"`
	Col            *uint32               `json:"col,omitempty"`
	Value          *string               `json:"value,omitempty"`
	Selection      *models.Rect          `json:"selection,omitempty"`
	Presence       []models.Collaborator `json:"presence,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// ParseClientFrame decodes a frame sent by a client and checks that its type
// is one the hub relays and that it carries the fields the type needs.
func ParseClientFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decoding frame: %w", err)
	}
	if !relayed[f.Type] {
		return Frame{}, fmt.Errorf("unsupported frame type %q", f.Type)
	}
	switch f.Type {
	case FrameCellChange:
		if f.Row == nil || f.Col == nil || f.Value == nil {
			return Frame{}, fmt.Errorf("%s frame needs row, col and value", f.Type)
		}
	case FrameCursor, FrameTypingStart:
		if f.Row == nil || f.Col == nil {
			return Frame{}, fmt.Errorf("%s frame needs row and col", f.Type)
		}
	case FrameSelection:
		if f.Selection == nil {
			return Frame{}, fmt.Errorf("%s frame needs a selection", f.Type)
		}
	}
	return f, nil
}

func ptr[T any](v T) *T {
	return &v
}
