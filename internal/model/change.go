package model

import (
	"time"
)

// ChangeType classifies the mutation an audit record describes.
type ChangeType string

const (
	ChangeCreated ChangeType = "CREATED"
	ChangeUpdated ChangeType = "UPDATED"
	ChangeDeleted ChangeType = "DELETED"
)

// Field identifies one tracked order-plan field. The set is closed: the
// change tracker ignores anything outside it, even if the value differs.
type Field string

const (
	FieldWorkType       Field = "workType"
	FieldStatus         Field = "status"
	FieldWeight         Field = "weight"
	FieldRepeatProgress Field = "repeatProgress"
	FieldRepeatCount    Field = "repeatCount"
	FieldDesiredDate    Field = "desiredDate"
	FieldDeliveryDate   Field = "deliveryDate"
	FieldOrderQuantity  Field = "orderQuantity"
	FieldCompanyName    Field = "companyName"
	FieldProductName    Field = "productName"
)

// TrackedFields lists every recognized field in a stable order.
var TrackedFields = []Field{
	FieldWorkType,
	FieldStatus,
	FieldWeight,
	FieldRepeatProgress,
	FieldRepeatCount,
	FieldDesiredDate,
	FieldDeliveryDate,
	FieldOrderQuantity,
	FieldCompanyName,
	FieldProductName,
}

// FieldChange is one detected field-level difference.
type FieldChange struct {
	Field       Field  `json:"field"`
	FieldLabel  string `json:"field_label"`
	OldValue    any    `json:"old_value"`
	NewValue    any    `json:"new_value"`
	Description string `json:"description"`
}

// ChangeRecord is one audit entry in the in-memory change feed.
// Immutable after creation except IsRead. Never persisted: the feed is a
// live-session notification stream, not a compliance log.
type ChangeRecord struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Type       ChangeType    `json:"type"`
	EntityID   string        `json:"entity_id"`
	EntityName string        `json:"entity_name"`
	Changes    []FieldChange `json:"changes"`
	Summary    string        `json:"summary"`
	IsRead     bool          `json:"is_read"`
}

// ChangeStats aggregates the current contents of the change feed.
type ChangeStats struct {
	Total     int                `json:"total"`
	ByType    map[ChangeType]int `json:"by_type"`
	Recent24h int                `json:"recent_24h"`
}
