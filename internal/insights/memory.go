package insights

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// List caps applied when merging into a MemoryRecord.
const (
	MaxThemes    = 8
	MaxPatterns  = 6
	MaxValues    = 8
	MaxStrengths = 8
)

// ErrInvalidStatus is returned for an unrecognised action item status.
var ErrInvalidStatus = errors.New("invalid action item status")

// ActionItemStatus tracks the lifecycle of a suggested action.
type ActionItemStatus string

const (
	ActionItemSuggested ActionItemStatus = "suggested"
	ActionItemAccepted  ActionItemStatus = "accepted"
	ActionItemDone      ActionItemStatus = "done"
	ActionItemDismissed ActionItemStatus = "dismissed"
)

// ParseActionItemStatus converts a raw status, rejecting unknown values.
func ParseActionItemStatus(raw string) (ActionItemStatus, error) {
	status := ActionItemStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case ActionItemSuggested, ActionItemAccepted, ActionItemDone, ActionItemDismissed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// ActionItem is a concrete next step keyed by a stable identifier.
type ActionItem struct {
	ID     string           `json:"id" jsonschema_description:"Stable kebab-case identifier, e.g. talk-to-boss"`
	Text   string           `json:"text"`
	Status ActionItemStatus `json:"status" jsonschema:"enum=suggested,enum=accepted,enum=done,enum=dismissed"`
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a stable identifier from free text.
func Slugify(text string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(text), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	return slug
}

// Normalize fills a missing id from the text and defaults the status.
// It returns false when the item carries nothing usable.
func (a ActionItem) Normalize() (ActionItem, bool) {
	a.ID = strings.TrimSpace(a.ID)
	a.Text = strings.TrimSpace(a.Text)
	if a.ID == "" {
		a.ID = Slugify(a.Text)
	}
	if a.ID == "" {
		return ActionItem{}, false
	}
	if status, err := ParseActionItemStatus(string(a.Status)); err == nil {
		a.Status = status
	} else {
		a.Status = ActionItemSuggested
	}
	return a, true
}

// Person is someone important in the user's life.
type Person struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
}

// Identity is what the user has shared about themselves.
type Identity struct {
	Name            string   `json:"name,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	ImportantPeople []Person `json:"importantPeople,omitempty"`
}

// ExtractedFields is the loosely-typed record the model returns for one
// extraction call. It is never mutated, only merged into a MemoryRecord.
type ExtractedFields struct {
	Identity         Identity     `json:"identity"`
	Themes           []string     `json:"themes" jsonschema_description:"Recurring topics, at most 8"`
	Patterns         []string     `json:"patterns" jsonschema_description:"Behavioural patterns, at most 6"`
	Values           []string     `json:"values"`
	Strengths        []string     `json:"strengths"`
	CurrentSituation string       `json:"currentSituation,omitempty"`
	EmotionalState   string       `json:"emotionalState,omitempty"`
	ActionItems      []ActionItem `json:"actionItems"`
	Signals          []RawSignal  `json:"signals,omitempty"`
}

// MemoryRecord is the durable per-user aggregate of every extraction seen.
type MemoryRecord struct {
	Identity         Identity     `json:"identity"`
	Themes           []string     `json:"themes"`
	Patterns         []string     `json:"patterns"`
	Values           []string     `json:"values"`
	Strengths        []string     `json:"strengths"`
	CurrentSituation string       `json:"currentSituation,omitempty"`
	EmotionalState   string       `json:"emotionalState,omitempty"`
	ActionItems      []ActionItem `json:"actionItems"`
	LastSeenAt       time.Time    `json:"lastSeenAt"`
}

// FindActionItem returns the index of the item with the given id, or -1.
func (m MemoryRecord) FindActionItem(id string) int {
	for i, item := range m.ActionItems {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// WithActionItemStatus returns a copy of the record with one item's status
// changed. This is the only path by which an existing status changes.
func (m MemoryRecord) WithActionItemStatus(id string, status ActionItemStatus) (MemoryRecord, bool) {
	idx := m.FindActionItem(id)
	if idx < 0 {
		return m, false
	}
	items := make([]ActionItem, len(m.ActionItems))
	copy(items, m.ActionItems)
	items[idx].Status = status
	m.ActionItems = items
	return m, true
}
