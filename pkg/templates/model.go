// Package templates stores reusable message templates grouped into
// categories, in a single versioned document.
package templates

import (
	"errors"
	"sort"
	"strings"
)

const (
	// CurrentVersion is the schema version every loaded Document is upgraded to.
	CurrentVersion = 3
	// DocumentKey is the storage key of the Document.
	DocumentKey = "quickMessagesData"
)

var (
	ErrCorruptData      = errors.New("templates: stored document is corrupt")
	ErrDuplicateName    = errors.New("templates: a category with that name already exists")
	ErrShortcutConflict = errors.New("templates: shortcut already assigned to another category")
	ErrLastCategory     = errors.New("templates: cannot delete the last category")
	ErrCategoryNotFound = errors.New("templates: category not found")
	ErrMessageNotFound  = errors.New("templates: message not found")
	ErrInvalidImport    = errors.New("templates: invalid import file")
)

// Category groups messages and may be bound to a keyboard shortcut.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Shortcut string `json:"shortcut"`
}

// Message is a reusable rich-text template. Within a category the Order
// values of its messages are always 0..N-1.
type Message struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	CategoryID string `json:"categoryId"`
	Order      int    `json:"order"`
}

// Document is the persisted root.
type Document struct {
	Version    int        `json:"version"`
	Categories []Category `json:"categories"`
	Messages   []Message  `json:"messages"`
}

func (d *Document) clone() *Document {
	out := &Document{
		Version:    d.Version,
		Categories: make([]Category, len(d.Categories)),
		Messages:   make([]Message, len(d.Messages)),
	}
	copy(out.Categories, d.Categories)
	copy(out.Messages, d.Messages)
	return out
}

func (d *Document) category(id string) *Category {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i]
		}
	}
	return nil
}

func (d *Document) categoryByName(name string) *Category {
	name = strings.TrimSpace(name)
	for i := range d.Categories {
		if strings.EqualFold(strings.TrimSpace(d.Categories[i].Name), name) {
			return &d.Categories[i]
		}
	}
	return nil
}

func (d *Document) message(id string) *Message {
	for i := range d.Messages {
		if d.Messages[i].ID == id {
			return &d.Messages[i]
		}
	}
	return nil
}

// orderedIDs lists the ids of a category's messages by current order, ties
// broken by position in the document.
func (d *Document) orderedIDs(categoryID string) []string {
	type item struct {
		id    string
		order int
		pos   int
	}
	items := make([]item, 0)
	for i, m := range d.Messages {
		if m.CategoryID == categoryID {
			items = append(items, item{id: m.ID, order: m.Order, pos: i})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].order == items[j].order {
			return items[i].pos < items[j].pos
		}
		return items[i].order < items[j].order
	})
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids
}

// applyOrder assigns categoryID and order 0..N-1 following ids.
func (d *Document) applyOrder(categoryID string, ids []string) {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	for i := range d.Messages {
		if pos, ok := index[d.Messages[i].ID]; ok {
			d.Messages[i].CategoryID = categoryID
			d.Messages[i].Order = pos
		}
	}
}

func (d *Document) renumber(categoryID string) {
	d.applyOrder(categoryID, d.orderedIDs(categoryID))
}

func (d *Document) nextOrder(categoryID string) int {
	next := 0
	for _, m := range d.Messages {
		if m.CategoryID == categoryID && m.Order+1 > next {
			next = m.Order + 1
		}
	}
	return next
}

// IsDense reports whether every category's orders are exactly 0..N-1.
func (d *Document) IsDense() bool {
	seen := make(map[string]map[int]bool)
	for _, m := range d.Messages {
		if seen[m.CategoryID] == nil {
			seen[m.CategoryID] = make(map[int]bool)
		}
		if seen[m.CategoryID][m.Order] {
			return false
		}
		seen[m.CategoryID][m.Order] = true
	}
	for _, orders := range seen {
		for i := 0; i < len(orders); i++ {
			if !orders[i] {
				return false
			}
		}
	}
	return true
}

// MessagesIn returns the messages of a category sorted by order.
func (d *Document) MessagesIn(categoryID string) []Message {
	ids := d.orderedIDs(categoryID)
	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, *d.message(id))
	}
	return out
}
