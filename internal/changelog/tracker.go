package changelog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
)

// DefaultCapacity is the default bound on the change feed.
const DefaultCapacity = 1000

// Tracker keeps a bounded, newest-first feed of change records and detects
// which tracked fields actually changed between two snapshots of an entity.
//
// The feed is process-local shared state guarded by a mutex, so trackers are
// safe to share across request goroutines. It is deliberately not durable: a
// restart empties it. Callers must invoke Track only after their own write
// has been committed, so the record never describes a mutation that failed.
type Tracker struct {
	mu      sync.Mutex
	records []model.ChangeRecord

	capacity int
	notify   func(model.ChangeRecord)
	now      func() time.Time
}

// NewTracker creates a Tracker bounded at capacity records; capacity values
// below one fall back to DefaultCapacity.
func NewTracker(capacity int) *Tracker {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		now:      time.Now,
	}
}

// SetNotify registers a hook invoked with each appended record, outside the
// tracker's lock. Used to push records to live subscribers. Safe to call
// concurrently with Track; records appended before registration are not
// replayed.
func (t *Tracker) SetNotify(fn func(model.ChangeRecord)) {
	t.mu.Lock()
	t.notify = fn
	t.mu.Unlock()
}

// Track diffs two snapshots of an entity and appends a change record.
//
// Only recognized fields present in newData are examined. For UPDATED
// mutations with no detected change, nothing is appended and the empty
// string is returned — re-saving unchanged data produces zero audit noise.
// CREATED and DELETED mutations always produce a record. Returns the new
// record's id.
func (t *Tracker) Track(entityID, entityName string, oldData, newData map[string]any, typ model.ChangeType) string {
	var changes []model.FieldChange
	for _, field := range model.TrackedFields {
		newVal, tracked := newData[string(field)]
		if !tracked {
			continue
		}
		oldVal := oldData[string(field)]
		if !hasChanged(oldVal, newVal) {
			continue
		}
		changes = append(changes, model.FieldChange{
			Field:       field,
			FieldLabel:  fieldLabel(field),
			OldValue:    oldVal,
			NewValue:    newVal,
			Description: describeChange(field, oldVal, newVal),
		})
	}

	if len(changes) == 0 && typ == model.ChangeUpdated {
		return ""
	}

	record := model.ChangeRecord{
		ID:         uuid.NewString(),
		Timestamp:  t.now().UTC(),
		Type:       typ,
		EntityID:   entityID,
		EntityName: entityName,
		Changes:    changes,
		Summary:    summarize(changes, typ),
	}

	t.mu.Lock()
	t.records = append([]model.ChangeRecord{record}, t.records...)
	if len(t.records) > t.capacity {
		t.records = t.records[:t.capacity]
	}
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(record)
	}
	return record.ID
}

// summarize builds the one-line (or bulleted) natural-language summary.
func summarize(changes []model.FieldChange, typ model.ChangeType) string {
	switch typ {
	case model.ChangeCreated:
		return "New order plan created."
	case model.ChangeDeleted:
		return "Order plan deleted."
	}

	if len(changes) == 0 {
		return "No changes."
	}
	if len(changes) == 1 {
		return changes[0].Description + "."
	}

	var b strings.Builder
	for _, c := range changes {
		b.WriteString("• ")
		b.WriteString(c.Description)
		b.WriteString("\n")
	}
	b.WriteString("Multiple fields updated.")
	return b.String()
}

// RecentChanges returns up to limit records, newest first. A non-positive
// limit returns the default page of 50.
func (t *Tracker) RecentChanges(limit int) []model.ChangeRecord {
	if limit <= 0 {
		limit = 50
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit > len(t.records) {
		limit = len(t.records)
	}
	out := make([]model.ChangeRecord, limit)
	copy(out, t.records[:limit])
	return out
}

// ChangesForEntity returns all records for one entity, newest first.
func (t *Tracker) ChangesForEntity(entityID string) []model.ChangeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.ChangeRecord
	for _, rec := range t.records {
		if rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	return out
}

// ChangeByID looks up a single record.
func (t *Tracker) ChangeByID(id string) (model.ChangeRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.ChangeRecord{}, false
}

// Stats aggregates the current feed contents.
func (t *Tracker) Stats() model.ChangeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := model.ChangeStats{
		Total:  len(t.records),
		ByType: make(map[model.ChangeType]int),
	}
	cutoff := t.now().Add(-24 * time.Hour)
	for _, rec := range t.records {
		stats.ByType[rec.Type]++
		if rec.Timestamp.After(cutoff) {
			stats.Recent24h++
		}
	}
	return stats
}

// UnreadCount returns the number of unread records.
func (t *Tracker) UnreadCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, rec := range t.records {
		if !rec.IsRead {
			count++
		}
	}
	return count
}

// MarkAllRead flips every record to read.
func (t *Tracker) MarkAllRead() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.records {
		t.records[i].IsRead = true
	}
}

// MarkRead flips one record to read; reports whether it was found.
func (t *Tracker) MarkRead(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.records {
		if t.records[i].ID == id {
			t.records[i].IsRead = true
			return true
		}
	}
	return false
}

// Cleanup drops records older than the given age and returns how many were
// removed.
func (t *Tracker) Cleanup(olderThan time.Duration) int {
	cutoff := t.now().Add(-olderThan)
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.records[:0]
	for _, rec := range t.records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(t.records) - len(kept)
	t.records = kept
	return removed
}

// Len returns the current feed depth.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Capacity returns the feed bound.
func (t *Tracker) Capacity() int {
	return t.capacity
}
