package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Entities a ledger event can refer to.
const (
	EntityPeriod      = "period"
	EntityRemittance  = "remittance"
	EntityExpense     = "expense"
	EntityTransaction = "transaction"
)

// LedgerEventMessage announces a committed ledger mutation. It carries
// identifiers only; consumers re-read the store for current figures.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	PeriodID  string    `json:"period_id"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind, entity, id, periodID string, year, month int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		Entity:    entity,
		ID:        id,
		PeriodID:  periodID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects messages no consumer knows how to handle.
func (m *LedgerEventMessage) Validate() error {
	switch m.Kind {
	case KindCreated, KindUpdated, KindDeleted:
	default:
		return fmt.Errorf("unknown event kind %q", m.Kind)
	}
	switch m.Entity {
	case EntityPeriod, EntityRemittance, EntityExpense, EntityTransaction:
	default:
		return fmt.Errorf("unknown event entity %q", m.Entity)
	}
	if m.ID == "" {
		return fmt.Errorf("event has no record id")
	}
	return nil
}

const routingPrefix = "ledger"

// RoutingKey is "ledger.<entity>.<kind>", e.g. ledger.expense.created.
func (m *LedgerEventMessage) RoutingKey() string {
	return routingPrefix + "." + m.Entity + "." + m.Kind
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
