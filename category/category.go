// Package category implements the category model: named groupings of channel
// IDs with unique membership, the single source of truth for categorization.
package category

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Uncategorized is the sentinel pseudo-category for channels with no
// assignment. It is never an entry in the collection.
const Uncategorized = "uncategorized"

// Category is a user-defined grouping of channels. The ID is derived from the
// name at creation time and stays stable across renames.
type Category struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ChannelIDs []string `json:"channelIds"`
}

// Contains reports whether channelID is a member of this category.
func (c *Category) Contains(channelID string) bool {
	for _, id := range c.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// Collection is an ordered set of categories with unique IDs. A channel ID
// appears in the membership of at most one category at a time.
//
// Collection is not safe for concurrent use; callers serialize access.
type Collection struct {
	Categories []*Category `json:"categories"`
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{Categories: []*Category{}}
}

// Slugify derives a category ID from a display name: lowercased, runs of
// non-alphanumeric characters collapsed to single hyphens, no leading or
// trailing hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Ensure returns the category whose ID derives from name, creating and
// appending it if absent. An existing category's display name is not updated,
// so repeated calls with names that normalize to the same ID are idempotent.
func (col *Collection) Ensure(name string) *Category {
	id := Slugify(name)
	if cat := col.ByID(id); cat != nil {
		return cat
	}
	cat := &Category{ID: id, Name: name, ChannelIDs: []string{}}
	col.Categories = append(col.Categories, cat)
	return cat
}

// ByID returns the category with the given ID, or nil.
func (col *Collection) ByID(id string) *Category {
	for _, cat := range col.Categories {
		if cat.ID == id {
			return cat
		}
	}
	return nil
}

// ByName returns the category with the given display name, or nil.
func (col *Collection) ByName(name string) *Category {
	for _, cat := range col.Categories {
		if cat.Name == name {
			return cat
		}
	}
	return nil
}

// ForChannel returns the category containing channelID. Membership is unique,
// so the first match in collection order is also the only one.
func (col *Collection) ForChannel(channelID string) (*Category, bool) {
	for _, cat := range col.Categories {
		if cat.Contains(channelID) {
			return cat, true
		}
	}
	return nil, false
}

// Assign moves channelID into the category with categoryID. The channel is
// removed from every category first, so membership stays unique. Passing an
// empty ID or the Uncategorized sentinel leaves the channel unassigned.
// Assigning to an unknown category ID also leaves it unassigned.
func (col *Collection) Assign(channelID, categoryID string) {
	for _, cat := range col.Categories {
		cat.remove(channelID)
	}
	if categoryID == "" || categoryID == Uncategorized {
		return
	}
	if cat := col.ByID(categoryID); cat != nil {
		cat.ChannelIDs = append(cat.ChannelIDs, channelID)
	}
}

func (c *Category) remove(channelID string) {
	kept := c.ChannelIDs[:0]
	for _, id := range c.ChannelIDs {
		if id != channelID {
			kept = append(kept, id)
		}
	}
	c.ChannelIDs = kept
}

// Rename updates a category's display name in place. The ID is not
// recomputed. Returns false if no category has the given ID.
func (col *Collection) Rename(id, newName string) bool {
	cat := col.ByID(id)
	if cat == nil {
		return false
	}
	cat.Name = newName
	return true
}

// Delete removes the category with the given ID. Member channels are not
// reassigned; they simply stop matching any category. Returns false if no
// category has the given ID.
func (col *Collection) Delete(id string) bool {
	for i, cat := range col.Categories {
		if cat.ID == id {
			col.Categories = append(col.Categories[:i], col.Categories[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the collection holds no categories.
func (col *Collection) IsEmpty() bool {
	return len(col.Categories) == 0
}

// Replace swaps the collection's contents for other's. Used when an
// authoritative remote document wins over local state.
func (col *Collection) Replace(other *Collection) {
	if other == nil || other.Categories == nil {
		col.Categories = []*Category{}
		return
	}
	col.Categories = other.Categories
}

// ParseCollection validates raw JSON against the persisted document shape and
// returns the decoded collection. The document must carry a "categories"
// array whose entries each have an id and a name; arbitrary JSON is rejected
// rather than trusted.
func ParseCollection(raw []byte) (*Collection, error) {
	var probe struct {
		Categories *json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse categories document: %w", err)
	}
	if probe.Categories == nil {
		return nil, fmt.Errorf("categories document: missing categories array")
	}

	col := NewCollection()
	if err := json.Unmarshal(raw, col); err != nil {
		return nil, fmt.Errorf("parse categories document: %w", err)
	}
	for i, cat := range col.Categories {
		if cat == nil || cat.ID == "" || cat.Name == "" {
			return nil, fmt.Errorf("categories document: entry %d missing id or name", i)
		}
		if cat.ChannelIDs == nil {
			cat.ChannelIDs = []string{}
		}
	}
	return col, nil
}
