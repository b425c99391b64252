package amqp

import (
	"encoding/json"
	"time"

	"paisa/internal/core"
)

const (
	KindExpenseChanged = "expense.changed"
	KindBudgetChanged  = "budget.changed"
)

// ChangeEvent announces a ledger or budget mutation. Consumers use
// the month to refresh derived views and reports.
type ChangeEvent struct {
	Kind  string        `json:"kind"`
	Month core.MonthKey `json:"month"`
	Count int           `json:"count"`
	At    time.Time     `json:"at"`
}

// NewExpenseChanged creates an expense change event.
func NewExpenseChanged(month core.MonthKey, count int) *ChangeEvent {
	return &ChangeEvent{
		Kind:  KindExpenseChanged,
		Month: month,
		Count: count,
		At:    time.Now().UTC(),
	}
}

// NewBudgetChanged creates a budget change event.
func NewBudgetChanged(month core.MonthKey) *ChangeEvent {
	return &ChangeEvent{
		Kind:  KindBudgetChanged,
		Month: month,
		Count: 1,
		At:    time.Now().UTC(),
	}
}

// ToJSON serializes the event.
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON deserializes an event.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
