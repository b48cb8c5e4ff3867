package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionItemStatus(t *testing.T) {
	status, err := ParseActionItemStatus(" Done ")
	require.NoError(t, err)
	assert.Equal(t, ActionItemDone, status)

	_, err = ParseActionItemStatus("maybe")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestActionItem_Normalize(t *testing.T) {
	t.Run("derives id from text", func(t *testing.T) {
		item, ok := ActionItem{Text: "Talk to my boss about workload!"}.Normalize()
		require.True(t, ok)
		assert.Equal(t, "talk-to-my-boss-about-workload", item.ID)
		assert.Equal(t, ActionItemSuggested, item.Status)
	})

	t.Run("keeps a valid status", func(t *testing.T) {
		item, ok := ActionItem{ID: "walk", Text: "Go for a walk", Status: "accepted"}.Normalize()
		require.True(t, ok)
		assert.Equal(t, ActionItemAccepted, item.Status)
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, ok := ActionItem{Text: "  !! "}.Normalize()
		assert.False(t, ok)
	})
}

func TestMemoryRecord_WithActionItemStatus(t *testing.T) {
	record := MemoryRecord{ActionItems: []ActionItem{
		{ID: "a", Text: "first", Status: ActionItemSuggested},
		{ID: "b", Text: "second", Status: ActionItemSuggested},
	}}

	updated, ok := record.WithActionItemStatus("b", ActionItemDone)
	require.True(t, ok)
	assert.Equal(t, ActionItemDone, updated.ActionItems[1].Status)
	assert.Equal(t, ActionItemSuggested, record.ActionItems[1].Status, "original must be untouched")

	_, ok = record.WithActionItemStatus("missing", ActionItemDone)
	assert.False(t, ok)
}

func TestValidateSenders(t *testing.T) {
	assert.NoError(t, ValidateSenders([]ConversationTurn{
		{Sender: SenderPersonA, Content: "hi"},
		{Sender: SenderMediator, Content: ""},
	}))
	assert.Error(t, ValidateSenders([]ConversationTurn{{Sender: "person_c", Content: "hi"}}))
}

func TestDropBlankTurns(t *testing.T) {
	got := DropBlankTurns([]ConversationTurn{
		{Sender: SenderPersonA, Content: "hi"},
		{Sender: SenderPersonB, Content: "   "},
		{Sender: SenderMediator, Content: "hello"},
	})
	assert.Equal(t, []ConversationTurn{
		{Sender: SenderPersonA, Content: "hi"},
		{Sender: SenderMediator, Content: "hello"},
	}, got)
	assert.Empty(t, DropBlankTurns(nil))
}

func TestConversationTurn_String(t *testing.T) {
	assert.Equal(t, "[person_a]: I feel unheard", ConversationTurn{Sender: SenderPersonA, Content: "I feel unheard"}.String())
}

func TestNVCAnalysis_Normalize(t *testing.T) {
	a := NVCAnalysis{Temperature: 1.4, Horsemen: []string{"contempt", "sarcasm"}}.Normalize()
	assert.Equal(t, 1.0, a.Temperature)
	assert.Equal(t, []string{"contempt"}, a.Horsemen)
}
