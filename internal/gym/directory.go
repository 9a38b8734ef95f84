// Package gym holds the directory of places raids happen at.
package gym

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/raidboard/raidboard-server/internal/domain"
	domainerrors "github.com/raidboard/raidboard-server/internal/errors"
)

// DefaultSearchLimit caps Search results when the caller passes no limit.
const DefaultSearchLimit = 10

// Hit is one search result.
type Hit struct {
	Gym   domain.Gym `json:"gym"`
	Score float64    `json:"score"`
}

// Directory is an in-memory gym list with a bleve name index.
//
// Thread safety: all methods are safe for concurrent use. Load swaps the
// list and index together, so readers never see a half-built directory.
type Directory struct {
	mu     sync.RWMutex
	gyms   map[string]domain.Gym
	index  bleve.Index
	logger *slog.Logger
}

// NewDirectory creates an empty directory.
func NewDirectory(logger *slog.Logger) (*Directory, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create gym index: %w", err)
	}
	return &Directory{
		gyms:   make(map[string]domain.Gym),
		index:  index,
		logger: logger,
	}, nil
}

// LoadFile replaces the directory with the JSON array of gyms at path.
func (d *Directory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read gyms file: %w", err)
	}

	var gyms []domain.Gym
	if err := json.Unmarshal(data, &gyms); err != nil {
		return fmt.Errorf("decode gyms file %s: %w", path, err)
	}

	if err := d.Load(gyms); err != nil {
		return err
	}
	d.logger.Info("gyms loaded", "path", path, "count", len(gyms))
	return nil
}

// Load replaces the directory contents. Gyms without an id or name are rejected.
func (d *Directory) Load(gyms []domain.Gym) error {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create gym index: %w", err)
	}

	byID := make(map[string]domain.Gym, len(gyms))
	batch := index.NewBatch()
	for _, g := range gyms {
		if g.ID == "" || g.Name == "" {
			_ = index.Close()
			return domainerrors.Validationf("gym %q needs both id and name", g.ID+g.Name)
		}
		byID[foldID(g.ID)] = g
		if err := batch.Index(g.ID, map[string]any{"id": g.ID, "name": g.Name}); err != nil {
			_ = index.Close()
			return fmt.Errorf("index gym %s: %w", g.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("commit gym index: %w", err)
	}

	d.mu.Lock()
	old := d.index
	d.index = index
	d.gyms = byID
	d.mu.Unlock()

	if err := old.Close(); err != nil {
		d.logger.Warn("failed to close previous gym index", "error", err)
	}
	return nil
}

// Get returns the gym with id, ignoring case.
func (d *Directory) Get(id string) (domain.Gym, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.gyms[foldID(id)]
	return g, ok
}

// Len is the number of gyms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.gyms)
}

// Search finds gyms whose names match text, best first.
func (d *Directory) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildNameQuery(text), limit, 0, false)
	res, err := d.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search gyms: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		g, ok := d.gyms[foldID(h.ID)]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Gym: g, Score: h.Score})
	}
	return hits, nil
}

// Lookup resolves ref as a gym id, or failing that as a name query, and returns
// the best match.
func (d *Directory) Lookup(ref string) (domain.Gym, error) {
	if g, ok := d.Get(ref); ok {
		return g, nil
	}

	hits, err := d.Search(context.Background(), ref, 1)
	if err != nil {
		return domain.Gym{}, err
	}
	if len(hits) == 0 {
		return domain.Gym{}, domainerrors.Newf(domainerrors.CodeGymNotFound, "no gym matches %q", ref)
	}
	return hits[0].Gym, nil
}

// Close releases the index.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index.Close()
}

// buildNameQuery combines an exact match, a typo-tolerant match and a prefix
// match on the name, the exact one weighted highest.
func buildNameQuery(text string) query.Query {
	nameMatch := bleve.NewMatchQuery(text)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	fuzzy := bleve.NewMatchQuery(text)
	fuzzy.SetField("name")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	queries := []query.Query{nameMatch, fuzzy}
	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("name")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func foldID(id string) string {
	return domain.FoldKey(id)
}
