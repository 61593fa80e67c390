package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"tableflip.dev/quickmsg/pkg/sanitize"
)

// importSchema accepts the current document shape and the legacy bare list
// of messages. Field-level repair is left to Migrate.
const importSchema = `{
  "oneOf": [
    {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/definitions/message"}
    },
    {
      "type": "object",
      "required": ["messages"],
      "properties": {
        "version": {"type": "integer", "minimum": 0},
        "categories": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "id": {"type": ["string", "number"]},
              "name": {"type": ["string", "null"]},
              "shortcut": {"type": ["string", "null"]}
            }
          }
        },
        "messages": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/message"}
        }
      }
    }
  ],
  "definitions": {
    "message": {
      "type": "object",
      "required": ["title", "message"],
      "properties": {
        "id": {"type": ["string", "number"]},
        "title": {"type": ["string", "number"]},
        "message": {"type": "string"},
        "categoryId": {"type": ["string", "number", "null"]},
        "order": {"type": ["integer", "null"]}
      }
    }
  }
}`

var importSchemaLoader = gojsonschema.NewStringLoader(importSchema)

// ImportFile is a parsed export, upgraded to the current shape.
type ImportFile struct {
	Categories []Category
	Messages   []Message
}

// CategoryName returns the name of the file category a message belongs to.
func (f *ImportFile) CategoryName(categoryID string) string {
	for _, c := range f.Categories {
		if c.ID == categoryID {
			return c.Name
		}
	}
	return ""
}

func (f *ImportFile) message(id string) *Message {
	for i := range f.Messages {
		if f.Messages[i].ID == id {
			return &f.Messages[i]
		}
	}
	return nil
}

// ImportSelection picks one message from an ImportFile and where it goes.
// CategoryID names an existing category; otherwise NewCategoryName is
// matched case-insensitively against existing names and created if absent.
// With neither set, the message's category name in the file is used.
type ImportSelection struct {
	MessageID       string `json:"messageId"`
	CategoryID      string `json:"categoryId,omitempty"`
	NewCategoryName string `json:"newCategoryName,omitempty"`
}

// ImportResult reports what Import added.
type ImportResult struct {
	Messages          []Message  `json:"messages"`
	CreatedCategories []Category `json:"createdCategories"`
}

// Export returns the current document as indented JSON.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseImport validates an export file and upgrades it to the current shape.
func ParseImport(data []byte) (*ImportFile, error) {
	result, err := gojsonschema.Validate(importSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidImport, strings.Join(reasons, "; "))
	}
	doc, out := Migrate(data)
	if out.Corrupt != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, out.Corrupt)
	}
	return &ImportFile{Categories: doc.Categories, Messages: doc.Messages}, nil
}

// SelectAll selects every message in f, each into a category named like
// its category in the file.
func SelectAll(f *ImportFile) []ImportSelection {
	sels := make([]ImportSelection, 0, len(f.Messages))
	for _, m := range f.Messages {
		sels = append(sels, ImportSelection{MessageID: m.ID})
	}
	return sels
}

// Import adds the selected messages with fresh ids. Nothing already stored
// is overwritten.
func (s *Store) Import(ctx context.Context, f *ImportFile, sels []ImportSelection) (*ImportResult, error) {
	res := &ImportResult{Messages: []Message{}, CreatedCategories: []Category{}}
	_, err := s.update(ctx, func(doc *Document) error {
		for _, sel := range sels {
			src := f.message(sel.MessageID)
			if src == nil {
				return fmt.Errorf("%w: message %s is not in the file", ErrInvalidImport, sel.MessageID)
			}
			dest, err := s.importDestination(doc, f, sel, src, res)
			if err != nil {
				return err
			}
			m := Message{
				ID:         s.newID("msg"),
				Title:      src.Title,
				Message:    sanitize.HTML(src.Message),
				CategoryID: dest,
				Order:      doc.nextOrder(dest),
			}
			doc.Messages = append(doc.Messages, m)
			res.Messages = append(res.Messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) importDestination(doc *Document, f *ImportFile, sel ImportSelection, src *Message, res *ImportResult) (string, error) {
	if sel.CategoryID != "" {
		if doc.category(sel.CategoryID) == nil {
			return "", fmt.Errorf("%w: %s", ErrCategoryNotFound, sel.CategoryID)
		}
		return sel.CategoryID, nil
	}
	name := strings.TrimSpace(sel.NewCategoryName)
	if name == "" {
		name = strings.TrimSpace(f.CategoryName(src.CategoryID))
	}
	if name == "" {
		name = fallbackCategoryName
	}
	if c := doc.categoryByName(name); c != nil {
		return c.ID, nil
	}
	c := Category{ID: s.newID("cat"), Name: name}
	doc.Categories = append(doc.Categories, c)
	res.CreatedCategories = append(res.CreatedCategories, c)
	return c.ID, nil
}
