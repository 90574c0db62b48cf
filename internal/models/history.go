package models

import "time"

// HistoryRecord is one entry in the append-only audit log.
type HistoryRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// HandoverRecord tracks a counter moving from one sales person to another.
type HandoverRecord struct {
	ID                string    `json:"id"`
	Date              string    `json:"date"`
	Timestamp         time.Time `json:"timestamp"`
	CounterID         int       `json:"counterId"`
	FromPersonnelID   int       `json:"fromPersonnelId"`
	FromPersonnelName string    `json:"fromPersonnelName"`
	ToPersonnelID     int       `json:"toPersonnelId"`
	ToPersonnelName   string    `json:"toPersonnelName"`
	AssignerName      string    `json:"assignerName"`
}
