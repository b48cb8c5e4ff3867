// Package merge folds freshly extracted fields into a user's MemoryRecord.
// Merging is pure: it never fails and never mutates its inputs.
package merge

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lewisedginton/parallax/internal/insights"
)

// Merge combines fields with the existing record (which may be nil).
//
//   - identity sub-fields: new value if non-empty, else existing
//   - string lists: existing then new, case-insensitive dedup keeping the
//     first casing, truncated to the field cap
//   - important people: dedup by name, case-insensitive
//   - action items: keyed by id, existing items are never overwritten
//   - current situation / emotional state: replaced when new value present
//   - LastSeenAt: always now
func Merge(fields insights.ExtractedFields, existing *insights.MemoryRecord, now time.Time) insights.MemoryRecord {
	var prev insights.MemoryRecord
	if existing != nil {
		prev = *existing
	}

	return insights.MemoryRecord{
		Identity:         mergeIdentity(fields.Identity, prev.Identity),
		Themes:           mergeStrings(prev.Themes, fields.Themes, insights.MaxThemes),
		Patterns:         mergeStrings(prev.Patterns, fields.Patterns, insights.MaxPatterns),
		Values:           mergeStrings(prev.Values, fields.Values, insights.MaxValues),
		Strengths:        mergeStrings(prev.Strengths, fields.Strengths, insights.MaxStrengths),
		CurrentSituation: latest(fields.CurrentSituation, prev.CurrentSituation),
		EmotionalState:   latest(fields.EmotionalState, prev.EmotionalState),
		ActionItems:      mergeActionItems(prev.ActionItems, fields.ActionItems),
		LastSeenAt:       now,
	}
}

func mergeIdentity(next, prev insights.Identity) insights.Identity {
	return insights.Identity{
		Name:            latest(next.Name, prev.Name),
		Bio:             latest(next.Bio, prev.Bio),
		ImportantPeople: mergePeople(prev.ImportantPeople, next.ImportantPeople),
	}
}

func latest(next, prev string) string {
	if v := strings.TrimSpace(next); v != "" {
		return v
	}
	return prev
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func mergeStrings(prev, next []string, limit int) []string {
	combined := lo.Filter(append(append([]string{}, prev...), next...), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	combined = lo.Map(combined, func(s string, _ int) string { return strings.TrimSpace(s) })
	unique := lo.UniqBy(combined, foldKey)
	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

func mergePeople(prev, next []insights.Person) []insights.Person {
	combined := lo.Filter(append(append([]insights.Person{}, prev...), next...), func(p insights.Person, _ int) bool {
		return strings.TrimSpace(p.Name) != ""
	})
	if len(combined) == 0 {
		return nil
	}
	return lo.UniqBy(combined, func(p insights.Person) string { return foldKey(p.Name) })
}

func mergeActionItems(prev, next []insights.ActionItem) []insights.ActionItem {
	merged := append([]insights.ActionItem{}, prev...)
	seen := lo.SliceToMap(prev, func(item insights.ActionItem) (string, struct{}) {
		return item.ID, struct{}{}
	})
	for _, raw := range next {
		item, ok := raw.Normalize()
		if !ok {
			continue
		}
		if _, exists := seen[item.ID]; exists {
			continue
		}
		seen[item.ID] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}

// MergeSignals upserts detected signals by type: a re-detected type replaces
// value and confidence, other existing types are kept.
func MergeSignals(existing, detected []insights.Signal) []insights.Signal {
	byType := make(map[insights.SignalType]int, len(existing))
	merged := append([]insights.Signal{}, existing...)
	for i, s := range merged {
		byType[s.Type] = i
	}
	for _, s := range detected {
		if idx, ok := byType[s.Type]; ok {
			merged[idx] = s
			continue
		}
		byType[s.Type] = len(merged)
		merged = append(merged, s)
	}
	return merged
}
