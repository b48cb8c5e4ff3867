// Package insights holds the domain types shared by the extraction pipeline:
// conversation turns, extracted fields, the per-user memory record and
// behavioural signals.
package insights

import (
	"fmt"
	"strings"
)

// MinTurnsForExtraction is the smallest conversation worth sending to the model.
const MinTurnsForExtraction = 2

// Sender identifies who authored a conversation turn.
type Sender string

const (
	SenderPersonA  Sender = "person_a"
	SenderPersonB  Sender = "person_b"
	SenderMediator Sender = "mediator"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	switch s {
	case SenderPersonA, SenderPersonB, SenderMediator:
		return true
	default:
		return false
	}
}

// ConversationTurn is one message attributed to a sender.
type ConversationTurn struct {
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
}

// String renders the turn the way it is shown to the model.
func (t ConversationTurn) String() string {
	return fmt.Sprintf("[%s]: %s", t.Sender, t.Content)
}

// ValidateSenders checks every turn has a known sender.
func ValidateSenders(turns []ConversationTurn) error {
	for i, turn := range turns {
		if !turn.Sender.Valid() {
			return fmt.Errorf("message %d: unknown sender %q", i, turn.Sender)
		}
	}
	return nil
}

// DropBlankTurns returns the turns with non-blank content, in order.
func DropBlankTurns(turns []ConversationTurn) []ConversationTurn {
	kept := make([]ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		if strings.TrimSpace(turn.Content) != "" {
			kept = append(kept, turn)
		}
	}
	return kept
}

// HasEnoughContext reports whether a conversation is long enough to extract from.
func HasEnoughContext(turns []ConversationTurn) bool {
	return len(turns) >= MinTurnsForExtraction
}
