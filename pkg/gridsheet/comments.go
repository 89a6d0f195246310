package gridsheet

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const defaultAuthorName = "User"

// ErrCommentNotFound indicates no thread with the given id at the coordinate.
var ErrCommentNotFound = errors.New("comment not found")

// CommentLocation is a thread together with the cell it is attached to.
type CommentLocation struct {
	Row     uint32             `json:"row"`
	Col     uint32             `json:"col"`
	Comment models.CellComment `json:"comment"`
}

// AddComment opens a thread on a cell, replacing any thread already there,
// and marks the cell as commented.
func (s *Service) AddComment(ctx context.Context, id string, index int, row, col uint32, author, content string) (*models.CellComment, error) {
	if content == "" {
		return nil, NewOperationError(id, "add_comment", inputError("comment is empty"))
	}
	var comment models.CellComment
	_, err := s.updateWorksheet(ctx, id, index, "add_comment", func(ws *models.Worksheet) error {
		now := s.opts.Clock.Now()
		comment = models.CellComment{
			ID:         uuid.NewString(),
			AuthorID:   s.opts.UserID,
			AuthorName: cmp.Or(author, defaultAuthorName),
			Content:    content,
			CreatedAt:  now,
			UpdatedAt:  now,
			Replies:    []models.CommentReply{},
		}
		if ws.Comments == nil {
			ws.Comments = make(map[string]models.CellComment)
		}
		ws.Comments[models.CellKey(row, col)] = comment
		ws.UpdateCell(row, col, func(c *models.CellData) { c.HasComment = true })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ReplyComment appends a reply to the thread at (row, col).
func (s *Service) ReplyComment(ctx context.Context, id string, index int, row, col uint32, commentID, author, content string) (*models.Spreadsheet, error) {
	return s.updateThread(ctx, id, index, row, col, commentID, "reply_comment", func(c *models.CellComment) {
		now := s.opts.Clock.Now()
		c.Replies = append(c.Replies, models.CommentReply{
			ID:         uuid.NewString(),
			AuthorID:   s.opts.UserID,
			AuthorName: cmp.Or(author, defaultAuthorName),
			Content:    content,
			CreatedAt:  now,
		})
		c.UpdatedAt = now
	})
}

// ResolveComment sets or clears the resolved flag of a thread.
func (s *Service) ResolveComment(ctx context.Context, id string, index int, row, col uint32, commentID string, resolved bool) (*models.Spreadsheet, error) {
	return s.updateThread(ctx, id, index, row, col, commentID, "resolve_comment", func(c *models.CellComment) {
		c.Resolved = resolved
		c.UpdatedAt = s.opts.Clock.Now()
	})
}

func (s *Service) updateThread(ctx context.Context, id string, index int, row, col uint32, commentID, op string, fn func(c *models.CellComment)) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, op, func(ws *models.Worksheet) error {
		key := models.CellKey(row, col)
		c, ok := ws.Comments[key]
		if !ok || c.ID != commentID {
			return ErrCommentNotFound
		}
		fn(&c)
		ws.Comments[key] = c
		return nil
	})
}

// DeleteComment removes the thread at (row, col) and clears the cell's
// comment flag, dropping the cell if nothing else is left in it.
func (s *Service) DeleteComment(ctx context.Context, id string, index int, row, col uint32) (*models.Spreadsheet, error) {
	return s.updateWorksheet(ctx, id, index, "delete_comment", func(ws *models.Worksheet) error {
		delete(ws.Comments, models.CellKey(row, col))
		if _, ok := ws.Cell(row, col); ok {
			ws.UpdateCell(row, col, func(c *models.CellData) { c.HasComment = false })
		}
		return nil
	})
}

// ListComments returns every thread on a worksheet in row-major order.
func (s *Service) ListComments(ctx context.Context, id string, index int) ([]CommentLocation, error) {
	_, ws, err := s.view(ctx, id, index, "list_comments")
	if err != nil {
		return nil, err
	}
	out := make([]CommentLocation, 0, len(ws.Comments))
	for key, c := range ws.Comments {
		row, col, ok := models.ParseCellKey(key)
		if !ok {
			continue
		}
		out = append(out, CommentLocation{Row: row, Col: col, Comment: c})
	}
	slices.SortFunc(out, func(a, b CommentLocation) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	return out, nil
}
