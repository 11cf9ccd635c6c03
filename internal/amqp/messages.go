package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerSavedMessage announces that a user's document was saved. It carries
// only the username and the stored month keys; the worker reads the
// document itself from the shared ledger.
type LedgerSavedMessage struct {
	Username  string    `json:"username"`
	Months    []string  `json:"months"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerSavedMessage stamps a message with the current time.
func NewLedgerSavedMessage(username string, months []string) *LedgerSavedMessage {
	if months == nil {
		months = []string{}
	}
	return &LedgerSavedMessage{
		Username:  username,
		Months:    months,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerSavedMessageFromJSON decodes a message; a missing username is an
// error so malformed deliveries get dropped instead of requeued.
func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Username == "" {
		return nil, errors.New("ledger saved message without username")
	}
	return &msg, nil
}
