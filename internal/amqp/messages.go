package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type Operation string

const (
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
)

// Collections the mirror worker knows how to reconcile.
const (
	CollectionTransactions = "transactions"
	CollectionBudgets      = "budgets"
	CollectionAssets       = "assets"
	CollectionLiabilities  = "liabilities"
	CollectionInvestments  = "investments"
)

// ChangeMessage announces that one entity changed in the primary store.
// It carries only identity, not the record itself; the worker re-reads the
// entity so a stale message can never overwrite newer data.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Op         Operation `json:"op"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, id, userID string, op Operation) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		ID:         id,
		UserID:     userID,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) Validate() error {
	switch m.Collection {
	case CollectionTransactions, CollectionBudgets, CollectionAssets,
		CollectionLiabilities, CollectionInvestments:
	default:
		return fmt.Errorf("unknown collection %q", m.Collection)
	}
	if m.Op != OpUpsert && m.Op != OpDelete {
		return fmt.Errorf("unknown operation %q", m.Op)
	}
	if m.ID == "" || m.UserID == "" {
		return fmt.Errorf("missing id or user id")
	}
	return nil
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
