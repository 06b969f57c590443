package domain

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusDelivered Status = "delivered"
	// StatusCancelled is reserved for reversal records; nothing produces it yet.
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryRecord is one ledger row. Records are never modified after append.
type DeliveryRecord struct {
	Timestamp     time.Time      `db:"recorded_at"`
	CourierID     string         `db:"courier_id"`
	CourierHandle sql.NullString `db:"courier_handle"`
	Amount        int64          `db:"amount"`
	MessageRef    string         `db:"message_ref"`
	Status        Status         `db:"status"`
}

// LeaderboardEntry is derived from a ledger scan and never persisted.
type LeaderboardEntry struct {
	CourierID string
	Handle    sql.NullString
	Total     int64
}

type InboundMessage struct {
	ChatID     int64
	UserID     string
	UserHandle string
	MessageID  string
	Text       string
	ReceivedAt time.Time
}

type OutboundMessage struct {
	ChatID   int64
	Text     string
	Markdown bool
}

// Handle wraps a transport-reported handle, treating the empty string as absent.
func Handle(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
