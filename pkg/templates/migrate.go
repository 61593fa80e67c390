package templates

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strconv"
)

// Outcome describes what Migrate did to a stored value.
type Outcome struct {
	// From is the schema version found in the input, 0 when absent or unreadable.
	From int
	// Persist is set when the result differs in version from the input, or
	// replaced it, and should be written back.
	Persist bool
	// Corrupt carries the reason the input was discarded, if it was.
	Corrupt error
}

// Migrate upgrades a stored value of any historical shape to a current
// Document. It never fails: unreadable input yields the default document.
// Each step checks the version and runs at most once, so migrating a current
// document returns it unchanged.
func Migrate(raw []byte) (*Document, Outcome) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DefaultDocument(), Outcome{Persist: true}
	}

	var (
		src rawDocument
		err error
	)
	switch trimmed[0] {
	case '[':
		// Oldest format: a bare list of messages.
		src.Version = 1
		err = json.Unmarshal(trimmed, &src.Messages)
	case '{':
		err = json.Unmarshal(trimmed, &src)
	default:
		err = fmt.Errorf("unexpected leading byte %q", trimmed[0])
	}
	if err != nil {
		return reseed(0, err)
	}

	from := src.Version
	if from == 0 && len(src.Categories) == 0 && len(src.Messages) == 0 {
		return DefaultDocument(), Outcome{Persist: true}
	}
	if src.Version < 2 {
		src = toV2(src)
	}
	if src.Version < 3 {
		if len(src.Categories) == 0 {
			return reseed(from, fmt.Errorf("version %d document has no categories", from))
		}
		src = toV3(src)
	}
	if len(src.Categories) == 0 {
		return reseed(from, fmt.Errorf("version %d document has no categories", from))
	}

	doc := src.document()
	repair(doc)
	return doc, Outcome{From: from, Persist: doc.Version != from}
}

func reseed(from int, reason error) (*Document, Outcome) {
	return DefaultDocument(), Outcome{
		From:    from,
		Persist: true,
		Corrupt: fmt.Errorf("%w: %v", ErrCorruptData, reason),
	}
}

// toV2 puts every message into a single fallback category.
func toV2(src rawDocument) rawDocument {
	out := rawDocument{
		Version:    2,
		Categories: []rawCategory{{ID: fallbackCategoryID, Name: fallbackCategoryName}},
		Messages:   make([]rawMessage, 0, len(src.Messages)),
	}
	for i, m := range src.Messages {
		if m.ID == "" {
			m.ID = stableID("msg", i, string(m.Title), string(m.Message))
		}
		m.CategoryID = fallbackCategoryID
		m.Order = nil
		out.Messages = append(out.Messages, m)
	}
	return out
}

// toV3 assigns per-category order following document position and re-points
// orphans to the first category.
func toV3(src rawDocument) rawDocument {
	out := rawDocument{
		Version:    3,
		Categories: make([]rawCategory, 0, len(src.Categories)),
		Messages:   make([]rawMessage, 0, len(src.Messages)),
	}
	known := make(map[flexID]bool, len(src.Categories))
	for i, c := range src.Categories {
		if c.ID == "" {
			c.ID = stableID("cat", i, string(c.Name), "")
		}
		known[c.ID] = true
		out.Categories = append(out.Categories, c)
	}
	first := out.Categories[0].ID
	next := make(map[flexID]int, len(out.Categories))
	for i, m := range src.Messages {
		if m.ID == "" {
			m.ID = stableID("msg", i, string(m.Title), string(m.Message))
		}
		if !known[m.CategoryID] {
			m.CategoryID = first
		}
		order := next[m.CategoryID]
		next[m.CategoryID] = order + 1
		m.Order = &order
		out.Messages = append(out.Messages, m)
	}
	return out
}

// repair restores dense ordering and category membership in memory for
// documents that claim to be current but violate either invariant.
func repair(doc *Document) {
	first := doc.Categories[0].ID
	for i := range doc.Messages {
		if doc.category(doc.Messages[i].CategoryID) == nil {
			doc.Messages[i].CategoryID = first
		}
	}
	if doc.IsDense() {
		return
	}
	for _, c := range doc.Categories {
		doc.renumber(c.ID)
	}
}

// stableID derives an id from content so re-running a migration over the
// same input produces the same ids.
func stableID(prefix string, pos int, a, b string) flexID {
	sum := md5.Sum([]byte(fmt.Sprintf("%d|%s|%s", pos, a, b)))
	return flexID(fmt.Sprintf("%s_%x", prefix, sum[:6]))
}

type rawDocument struct {
	Version    int           `json:"version"`
	Categories []rawCategory `json:"categories"`
	Messages   []rawMessage  `json:"messages"`
}

type rawCategory struct {
	ID       flexID     `json:"id"`
	Name     flexString `json:"name"`
	Shortcut flexString `json:"shortcut"`
}

type rawMessage struct {
	ID         flexID     `json:"id"`
	Title      flexString `json:"title"`
	Message    flexString `json:"message"`
	CategoryID flexID     `json:"categoryId"`
	Order      *int       `json:"order"`
}

func (r rawDocument) document() *Document {
	doc := &Document{
		Version:    CurrentVersion,
		Categories: make([]Category, 0, len(r.Categories)),
		Messages:   make([]Message, 0, len(r.Messages)),
	}
	if r.Version > CurrentVersion {
		doc.Version = r.Version
	}
	for _, c := range r.Categories {
		doc.Categories = append(doc.Categories, Category{
			ID:       string(c.ID),
			Name:     string(c.Name),
			Shortcut: string(c.Shortcut),
		})
	}
	for i, m := range r.Messages {
		if m.ID == "" {
			m.ID = stableID("msg", i, string(m.Title), string(m.Message))
		}
		msg := Message{
			ID:         string(m.ID),
			Title:      string(m.Title),
			Message:    string(m.Message),
			CategoryID: string(m.CategoryID),
		}
		if m.Order != nil {
			msg.Order = *m.Order
		}
		doc.Messages = append(doc.Messages, msg)
	}
	return doc
}

// flexID accepts ids written as strings or numbers by older versions.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexString tolerates null for text fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			*f = flexString(n.String())
			return nil
		}
		if v, err := strconv.ParseBool(string(b)); err == nil {
			*f = flexString(strconv.FormatBool(v))
			return nil
		}
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = flexString(s)
	return nil
}
