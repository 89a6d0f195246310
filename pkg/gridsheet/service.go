package gridsheet

import (
	"context"
	"errors"
	"sync"

	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/storage"
)

// ChangeNotifier receives a cell change after it has been persisted.
type ChangeNotifier interface {
	NotifyCellChange(docID, identity string, row, col uint32, value string)
}

// Service is the document mutation API. It is safe for concurrent use.
type Service struct {
	repo  *storage.Repository
	opts  Options
	eval  *formula.Evaluator
	locks *docLocks

	mu       sync.RWMutex
	notifier ChangeNotifier
}

// NewService returns a Service persisting documents in store.
func NewService(store storage.BlobStore, opts ...Option) *Service {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Clock == nil {
		o.Clock = formula.WallClock{}
	}
	return &Service{
		repo:  storage.NewRepository(store, o.Container, o.StorageTimeout),
		opts:  o,
		eval:  formula.NewEvaluator(formula.WithClock(o.Clock)),
		locks: newDocLocks(),
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// SetNotifier installs the receiver of persisted cell changes.
func (s *Service) SetNotifier(n ChangeNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

func (s *Service) notify(docID, identity string, row, col uint32, value string) {
	if identity == "" {
		return
	}
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		n.NotifyCellChange(docID, identity, row, col, value)
	}
}

// update runs one read-modify-write cycle on a document.
func (s *Service) update(ctx context.Context, id, op string, fn func(sheet *models.Spreadsheet) error) (*models.Spreadsheet, error) {
	if s.opts.SerializeWrites {
		unlock := s.locks.lock(id)
		defer unlock()
	}
	sheet, err := s.repo.Load(ctx, s.opts.UserID, id)
	if err != nil {
		s.logFailure(ctx, id, op, err)
		return nil, NewOperationError(id, op, err)
	}
	if err := fn(sheet); err != nil {
		return nil, NewOperationError(id, op, err)
	}
	sheet.UpdatedAt = s.opts.Clock.Now()
	if err := s.repo.Save(ctx, sheet); err != nil {
		s.logFailure(ctx, id, op, err)
		return nil, NewOperationError(id, op, err)
	}
	alog.Debugf(ctx, "%s: persisted spreadsheet %s", op, id)
	return sheet, nil
}

// updateWorksheet is update scoped to one worksheet.
func (s *Service) updateWorksheet(ctx context.Context, id string, index int, op string, fn func(ws *models.Worksheet) error) (*models.Spreadsheet, error) {
	return s.update(ctx, id, op, func(sheet *models.Spreadsheet) error {
		ws, err := worksheetAt(sheet, index)
		if err != nil {
			return err
		}
		return fn(ws)
	})
}

// view loads a document and resolves a worksheet without persisting anything.
func (s *Service) view(ctx context.Context, id string, index int, op string) (*models.Spreadsheet, *models.Worksheet, error) {
	sheet, err := s.repo.Load(ctx, s.opts.UserID, id)
	if err != nil {
		s.logFailure(ctx, id, op, err)
		return nil, nil, NewOperationError(id, op, err)
	}
	ws, err := worksheetAt(sheet, index)
	if err != nil {
		return nil, nil, NewOperationError(id, op, err)
	}
	return sheet, ws, nil
}

func (s *Service) logFailure(ctx context.Context, id, op string, err error) {
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrSerialization) {
		alog.Errorf(ctx, "%s: spreadsheet %s: %v", op, id, err)
	}
}

func worksheetAt(sheet *models.Spreadsheet, index int) (*models.Worksheet, error) {
	ws, ok := sheet.Worksheet(index)
	if !ok {
		return nil, ErrInvalidWorksheetIndex
	}
	return ws, nil
}

// docLocks hands out one mutex per document id and forgets it once no
// caller holds or waits for it.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*docLock)}
}

func (d *docLocks) lock(id string) (unlock func()) {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &docLock{}
		d.locks[id] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, id)
		}
		d.mu.Unlock()
	}
}
