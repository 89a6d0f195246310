package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"go.alis.build/alog"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const (
	snapshotExt = ".json"
	contentJSON = "application/json"

	// listConcurrency bounds parallel snapshot loads while listing.
	listConcurrency = 8
)

// Repository loads and saves whole spreadsheet snapshots.
type Repository struct {
	store     BlobStore
	container string
	timeout   time.Duration
}

// NewRepository lays snapshots out under container in store. A positive
// timeout bounds every store call; expiry surfaces as ErrStorage.
func NewRepository(store BlobStore, container string, timeout time.Duration) *Repository {
	return &Repository{store: store, container: strings.Trim(container, "/"), timeout: timeout}
}

// SheetsPrefix is the key prefix under which a user's documents live.
func (r *Repository) SheetsPrefix(userID string) string {
	return path.Join(r.container, "users", userID, "sheets") + "/"
}

// Key returns the object key for a document artifact with the given extension.
func (r *Repository) Key(userID, sheetID, ext string) string {
	return r.SheetsPrefix(userID) + sheetID + ext
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Load reads and decodes one snapshot.
func (r *Repository) Load(ctx context.Context, userID, sheetID string) (*models.Spreadsheet, error) {
	if sheetID == "" || strings.ContainsAny(sheetID, "/\\") {
		return nil, fmt.Errorf("%w: invalid sheet id %q", ErrNotFound, sheetID)
	}
	key := r.Key(userID, sheetID, snapshotExt)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, classify(key, err)
	}
	var sheet models.Spreadsheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialization, key, err)
	}
	if len(sheet.Worksheets) == 0 {
		return nil, fmt.Errorf("%w: %s: snapshot has no worksheets", ErrSerialization, key)
	}
	return &sheet, nil
}

// Save encodes and writes the whole snapshot under its owner.
func (r *Repository) Save(ctx context.Context, sheet *models.Spreadsheet) error {
	key := r.Key(sheet.OwnerID, sheet.ID, snapshotExt)
	data, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSerialization, key, err)
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.Put(ctx, key, data, contentJSON); err != nil {
		return classify(key, err)
	}
	return nil
}

// PutArtifact stores a derived file such as an xlsx export next to the snapshot.
func (r *Repository) PutArtifact(ctx context.Context, userID, sheetID, ext, contentType string, data []byte) error {
	key := r.Key(userID, sheetID, ext)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.Put(ctx, key, data, contentType); err != nil {
		return classify(key, err)
	}
	return nil
}

// Delete removes the snapshot and any artifacts stored beside it. A missing
// snapshot is ErrNotFound; missing artifacts are ignored.
func (r *Repository) Delete(ctx context.Context, userID, sheetID string, artifactExts ...string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.Key(userID, sheetID, snapshotExt)
	if err := r.store.Delete(ctx, key); err != nil {
		return classify(key, err)
	}
	for _, ext := range artifactExts {
		key := r.Key(userID, sheetID, ext)
		if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
			return classify(key, err)
		}
	}
	return nil
}

// IDs lists the document ids a user owns, derived from snapshot file names.
func (r *Repository) IDs(ctx context.Context, userID string) ([]string, error) {
	prefix := r.SheetsPrefix(userID)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, classify(prefix, err)
	}
	var ids []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotExt))
	}
	return ids, nil
}

// List loads every snapshot a user owns and returns their metadata, most
// recently updated first. Snapshots that fail to load are logged and skipped.
func (r *Repository) List(ctx context.Context, userID string) ([]models.SpreadsheetMetadata, error) {
	sheets, err := r.LoadAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SpreadsheetMetadata, 0, len(sheets))
	for _, s := range sheets {
		out = append(out, s.Metadata())
	}
	slices.SortStableFunc(out, func(a, b models.SpreadsheetMetadata) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// LoadAll loads every readable snapshot a user owns, ordered by id.
func (r *Repository) LoadAll(ctx context.Context, userID string) ([]*models.Spreadsheet, error) {
	ids, err := r.IDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	loaded := make([]*models.Spreadsheet, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			sheet, err := r.Load(gctx, userID, id)
			if err != nil {
				alog.Warnf(gctx, "skipping spreadsheet %s: %v", id, err)
				return nil
			}
			loaded[i] = sheet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(loaded, func(s *models.Spreadsheet) bool { return s == nil })
	slices.SortFunc(out, func(a, b *models.Spreadsheet) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// classify maps a store error onto the repository error kinds.
func classify(key string, err error) error {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: timed out: %w", ErrStorage, key, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrStorage, key, err)
	}
}
