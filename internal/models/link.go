package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// LinkItem is a single outbound link on a profile page.
type LinkItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Validate checks that both title and url are present.
func (l LinkItem) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return NewValidationError("title", "link title is required")
	}
	if strings.TrimSpace(l.URL) == "" {
		return NewValidationError("url", "link url is required")
	}
	return nil
}

// LinkList is the ordered set of links on a profile. Insertion order is the
// display order; duplicates are allowed.
type LinkList []LinkItem

// normalized returns the item with surrounding whitespace trimmed.
func (l LinkItem) normalized() LinkItem {
	return LinkItem{Title: strings.TrimSpace(l.Title), URL: strings.TrimSpace(l.URL)}
}

// Append adds a link at the end of the list.
func (l *LinkList) Append(title, url string) error {
	item := LinkItem{Title: title, URL: url}.normalized()
	if err := item.Validate(); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

// RemoveAt removes the link at index, shifting later links left.
func (l *LinkList) RemoveAt(index int) error {
	n := len(*l)
	if index < 0 || index >= n {
		return &IndexError{Index: index, Len: n}
	}
	next := make(LinkList, 0, n-1)
	next = append(next, (*l)[:index]...)
	next = append(next, (*l)[index+1:]...)
	*l = next
	return nil
}

// ToOrderedSequence returns a copy of the links in display order.
func (l LinkList) ToOrderedSequence() []LinkItem {
	out := make([]LinkItem, len(l))
	copy(out, l)
	return out
}

// Clone returns an independent copy of the list. A nil list clones to an
// empty one.
func (l LinkList) Clone() LinkList {
	return LinkList(l.ToOrderedSequence())
}

// Normalized returns a copy with every item trimmed the way Append trims.
// Empty items are kept; Validate reports them.
func (l LinkList) Normalized() LinkList {
	out := make(LinkList, len(l))
	for i, item := range l {
		out[i] = item.normalized()
	}
	return out
}

// Value implements the driver.Valuer interface. The list is stored as a JSON
// array; a string is returned so lib/pq sends it as text into jsonb.
func (l LinkList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]LinkItem(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *LinkList) Scan(value interface{}) error {
	if value == nil {
		*l = LinkList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("links: unsupported column type %T", value)
	}

	var items []LinkItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("links: %w", err)
	}
	if items == nil {
		items = []LinkItem{}
	}
	*l = LinkList(items)
	return nil
}
