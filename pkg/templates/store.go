package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/sanitize"
	"tableflip.dev/quickmsg/pkg/store"
)

var (
	ErrEmptyName    = errors.New("templates: category name is required")
	ErrEmptyMessage = errors.New("templates: message title and body are required")
)

// MessageInput describes a new message.
type MessageInput struct {
	Title      string
	Message    string
	CategoryID string
}

// MessagePatch changes the fields that are set.
type MessagePatch struct {
	Title      *string
	Message    *string
	CategoryID *string
}

// Store reads and writes the template Document. Each mutation reloads the
// latest stored value, changes it and writes the whole document back.
type Store struct {
	bucket store.Bucket
	log    *zap.Logger

	mu    sync.Mutex
	newID func(prefix string) string
}

// NewStore returns a Store over bucket. A nil logger discards output.
func NewStore(bucket store.Bucket, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		bucket: bucket,
		log:    log,
		newID: func(prefix string) string {
			return prefix + "_" + uuid.NewString()
		},
	}
}

func (s *Store) load(ctx context.Context) (*Document, error) {
	raw, err := s.bucket.Get(ctx, DocumentKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	doc, out := Migrate(raw)
	if out.Corrupt != nil {
		s.log.Warn("discarding unreadable template document", zap.String("key", DocumentKey), zap.Error(out.Corrupt))
	}
	if out.Persist {
		metrics.Migrations.WithLabelValues(strconv.Itoa(out.From)).Inc()
		if err := s.write(ctx, doc); err != nil {
			s.log.Warn("persisting migrated document failed", zap.String("key", DocumentKey), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *Store) write(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("templates: encode document: %w", err)
	}
	if err := s.bucket.Set(ctx, DocumentKey, data); err != nil {
		return err
	}
	metrics.DocumentWrites.WithLabelValues(DocumentKey).Inc()
	return nil
}

func (s *Store) update(ctx context.Context, fn func(doc *Document) error) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.write(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Document returns the current document, migrating it if needed.
func (s *Store) Document(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Categories lists categories in document order.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// Messages lists the messages of a category by order. An empty categoryID
// lists every message, category by category.
func (s *Store) Messages(ctx context.Context, categoryID string) ([]Message, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	if categoryID != "" {
		if doc.category(categoryID) == nil {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		return doc.MessagesIn(categoryID), nil
	}
	out := make([]Message, 0, len(doc.Messages))
	for _, c := range doc.Categories {
		out = append(out, doc.MessagesIn(c.ID)...)
	}
	return out, nil
}

// Message returns a single message.
func (s *Store) Message(ctx context.Context, id string) (*Message, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	m := doc.message(id)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	out := *m
	return &out, nil
}

// AddCategory creates a category. The shortcut is normalized and checked
// against reserved combinations, but may repeat another category's.
func (s *Store) AddCategory(ctx context.Context, name, shortcut string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	sc, err := ValidateShortcut(shortcut)
	if err != nil {
		return nil, err
	}
	var created Category
	_, err = s.update(ctx, func(doc *Document) error {
		if doc.categoryByName(name) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		created = Category{ID: s.newID("cat"), Name: name, Shortcut: sc}
		doc.Categories = append(doc.Categories, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RenameCategory changes a category's name.
func (s *Store) RenameCategory(ctx context.Context, id, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	var renamed Category
	_, err := s.update(ctx, func(doc *Document) error {
		c := doc.category(id)
		if c == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if other := doc.categoryByName(name); other != nil && other.ID != id {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		c.Name = name
		renamed = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// UpdateCategoryShortcut binds a shortcut to a category, or clears it when
// shortcut is empty.
func (s *Store) UpdateCategoryShortcut(ctx context.Context, id, shortcut string) (*Category, error) {
	sc, err := ValidateShortcut(shortcut)
	if err != nil {
		return nil, err
	}
	var updated Category
	_, err = s.update(ctx, func(doc *Document) error {
		c := doc.category(id)
		if c == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if sc != "" {
			for _, other := range doc.Categories {
				if other.ID != id && other.Shortcut == sc {
					return fmt.Errorf("%w: %s is used by %s", ErrShortcutConflict, sc, other.Name)
				}
			}
		}
		c.Shortcut = sc
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory removes a category. Its messages move to the end of the
// first remaining category, keeping their relative order.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.update(ctx, func(doc *Document) error {
		if doc.category(id) == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if len(doc.Categories) <= 1 {
			return ErrLastCategory
		}
		moved := doc.orderedIDs(id)
		kept := make([]Category, 0, len(doc.Categories)-1)
		for _, c := range doc.Categories {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		doc.Categories = kept
		target := kept[0].ID
		doc.applyOrder(target, append(doc.orderedIDs(target), moved...))
		return nil
	})
	return err
}

// AddMessage appends a message to a category.
func (s *Store) AddMessage(ctx context.Context, in MessageInput) (*Message, error) {
	title := strings.TrimSpace(in.Title)
	body := sanitize.HTML(in.Message)
	if title == "" || strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	var created Message
	_, err := s.update(ctx, func(doc *Document) error {
		if doc.category(in.CategoryID) == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, in.CategoryID)
		}
		created = Message{
			ID:         s.newID("msg"),
			Title:      title,
			Message:    body,
			CategoryID: in.CategoryID,
			Order:      doc.nextOrder(in.CategoryID),
		}
		doc.Messages = append(doc.Messages, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateMessage applies patch to a message. Moving it to another category
// appends it there and closes the gap it left.
func (s *Store) UpdateMessage(ctx context.Context, id string, patch MessagePatch) (*Message, error) {
	var updated Message
	_, err := s.update(ctx, func(doc *Document) error {
		m := doc.message(id)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
		}
		if patch.Title != nil {
			t := strings.TrimSpace(*patch.Title)
			if t == "" {
				return ErrEmptyMessage
			}
			m.Title = t
		}
		if patch.Message != nil {
			body := sanitize.HTML(*patch.Message)
			if strings.TrimSpace(body) == "" {
				return ErrEmptyMessage
			}
			m.Message = body
		}
		if patch.CategoryID != nil && *patch.CategoryID != m.CategoryID {
			dest := *patch.CategoryID
			if doc.category(dest) == nil {
				return fmt.Errorf("%w: %s", ErrCategoryNotFound, dest)
			}
			src := m.CategoryID
			m.Order = doc.nextOrder(dest)
			m.CategoryID = dest
			doc.renumber(src)
		}
		updated = *doc.message(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveMessage deletes a message and renumbers the rest of its category.
func (s *Store) RemoveMessage(ctx context.Context, id string) error {
	_, err := s.update(ctx, func(doc *Document) error {
		m := doc.message(id)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
		}
		cat := m.CategoryID
		kept := make([]Message, 0, len(doc.Messages)-1)
		for _, msg := range doc.Messages {
			if msg.ID != id {
				kept = append(kept, msg)
			}
		}
		doc.Messages = kept
		doc.renumber(cat)
		return nil
	})
	return err
}

// Reorder moves a message to index within targetCategoryID. The index is
// clamped to the destination's bounds.
func (s *Store) Reorder(ctx context.Context, messageID, targetCategoryID string, targetIndex int) (*Message, error) {
	return s.move(ctx, messageID, targetCategoryID, func(dest []string) []string {
		return insertAt(remove(dest, messageID), messageID, targetIndex)
	})
}

// Drop moves a message relative to targetMessageID, the way a drag and drop
// gesture lands it.
func (s *Store) Drop(ctx context.Context, messageID, targetCategoryID, targetMessageID string, pos Position) (*Message, error) {
	return s.move(ctx, messageID, targetCategoryID, func(dest []string) []string {
		return ComputeNewOrder(messageID, dest, targetMessageID, pos)
	})
}

func (s *Store) move(ctx context.Context, messageID, targetCategoryID string, place func(dest []string) []string) (*Message, error) {
	var moved Message
	_, err := s.update(ctx, func(doc *Document) error {
		m := doc.message(messageID)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
		}
		if doc.category(targetCategoryID) == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, targetCategoryID)
		}
		src := m.CategoryID
		doc.applyOrder(targetCategoryID, place(doc.orderedIDs(targetCategoryID)))
		if src != targetCategoryID {
			doc.renumber(src)
		}
		moved = *doc.message(messageID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

// FindByShortcut returns the category bound to shortcut, or nil.
func (s *Store) FindByShortcut(ctx context.Context, shortcut string) (*Category, error) {
	sc, err := NormalizeShortcut(shortcut)
	if err != nil {
		return nil, err
	}
	if sc == "" {
		return nil, nil
	}
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range doc.Categories {
		if c.Shortcut == sc {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

// Reset replaces the stored document with the defaults.
func (s *Store) Reset(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := DefaultDocument()
	if err := s.write(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
