package repository

import "time"

// Account represents an account row. Meta holds backend-specific vault settings.
type Account struct {
	ID        string
	Name      string
	VaultType string
	Meta      map[string]string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alert represents a user-facing notification row.
type Alert struct {
	ID        string
	Severity  string
	Title     string
	Message   string
	CreatedAt time.Time
}
