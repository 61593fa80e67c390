// Package notes keeps free-form note blocks alongside the templates.
package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/sanitize"
	"tableflip.dev/quickmsg/pkg/store"
)

// StorageKey lives in the local partition.
const StorageKey = "notesData"

var (
	ErrEmptyNote    = errors.New("notes: title or content is required")
	ErrInvalidColor = errors.New("notes: unknown color")
	ErrNotFound     = errors.New("notes: not found")
)

// Colors are the note colors a client can render.
var Colors = []string{"yellow", "blue", "green", "pink", "purple", "gray"}

const defaultColor = "yellow"

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Title   string
	Content string
	Color   string
}

// Patch changes the fields that are set.
type Patch struct {
	Title   *string
	Content *string
	Color   *string
}

type Store struct {
	bucket store.Bucket
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewStore(bucket store.Bucket, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{bucket: bucket, log: log, now: time.Now}
}

func normalizeColor(c string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return defaultColor, nil
	}
	for _, known := range Colors {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, c)
}

func (s *Store) load(ctx context.Context) ([]Note, error) {
	var out []Note
	if _, err := store.GetJSON(ctx, s.bucket, StorageKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, notes []Note) error {
	if notes == nil {
		notes = []Note{}
	}
	if err := store.SetJSON(ctx, s.bucket, StorageKey, notes); err != nil {
		return err
	}
	metrics.DocumentWrites.WithLabelValues(StorageKey).Inc()
	return nil
}

func (s *Store) update(ctx context.Context, fn func([]Note) ([]Note, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return s.write(ctx, next)
}

func find(notes []Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

// Add creates a note.
func (s *Store) Add(ctx context.Context, in Input) (*Note, error) {
	title := strings.TrimSpace(in.Title)
	content := sanitize.HTML(in.Content)
	if title == "" && strings.TrimSpace(content) == "" {
		return nil, ErrEmptyNote
	}
	color, err := normalizeColor(in.Color)
	if err != nil {
		return nil, err
	}
	now := s.now()
	n := Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.update(ctx, func(notes []Note) ([]Note, error) {
		return append(notes, n), nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Update applies patch to a note.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Note, error) {
	var out Note
	err := s.update(ctx, func(notes []Note) ([]Note, error) {
		i := find(notes, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		n := notes[i]
		if patch.Title != nil {
			n.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Content != nil {
			n.Content = sanitize.HTML(*patch.Content)
		}
		if patch.Color != nil {
			c, err := normalizeColor(*patch.Color)
			if err != nil {
				return nil, err
			}
			n.Color = c
		}
		if n.Title == "" && strings.TrimSpace(n.Content) == "" {
			return nil, ErrEmptyNote
		}
		n.UpdatedAt = s.now()
		notes[i] = n
		out = n
		return notes, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a note.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(notes []Note) ([]Note, error) {
		i := find(notes, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return append(notes[:i], notes[i+1:]...), nil
	})
}

// TogglePin flips a note's pinned flag.
func (s *Store) TogglePin(ctx context.Context, id string) (*Note, error) {
	var out Note
	err := s.update(ctx, func(notes []Note) ([]Note, error) {
		i := find(notes, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		notes[i].Pinned = !notes[i].Pinned
		notes[i].UpdatedAt = s.now()
		out = notes[i]
		return notes, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns pinned notes first, then the most recently updated.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	s.mu.Lock()
	notes, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Pinned != notes[j].Pinned {
			return notes[i].Pinned
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}
