package models

import (
	"time"
)

// ThreadSummary is one row of the inbox list.
type ThreadSummary struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Company      string    `json:"company"`
	Subject      string    `json:"subject"`
	Preview      string    `json:"preview"`
	LastUpdated  time.Time `json:"lastUpdated"`
	DisplayTime  string    `json:"displayTime"`
	UnreadCount  int       `json:"unreadCount"`
	Selected     bool      `json:"selected"`
}

// ThreadDetail is the selected thread as rendered by the detail view.
type ThreadDetail struct {
	Thread       *Thread `json:"thread"`
	CustomerName string  `json:"customerName"`
	Company      string  `json:"company"`
}

// ThreadFilter narrows the inbox list.
type ThreadFilter struct {
	Search     string `json:"search"`
	UnreadOnly bool   `json:"unreadOnly"`
}

// ComposeInput is the payload of the compose form.
type ComposeInput struct {
	CustomerID string `json:"customerId"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}
