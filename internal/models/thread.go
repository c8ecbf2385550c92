package models

import (
	"time"
)

// SystemSenderID tags messages written by the operator rather than a customer.
const SystemSenderID = "system"

type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// IsInbound reports whether the message was sent by a customer.
func (m *Message) IsInbound() bool {
	return m.SenderID != SystemSenderID
}

type Thread struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customerId"`
	Subject     string     `json:"subject"`
	Messages    []*Message `json:"messages"`
	LastUpdated time.Time  `json:"lastUpdated"`
	UnreadCount int        `json:"unreadCount"`
}

// Clone returns a deep copy of the thread.
func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}

	clone := *t
	clone.Messages = make([]*Message, len(t.Messages))
	for i, msg := range t.Messages {
		m := *msg
		clone.Messages[i] = &m
	}

	return &clone
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (t *Thread) LastMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// CountUnread counts inbound messages that have not been read.
func (t *Thread) CountUnread() int {
	count := 0
	for _, msg := range t.Messages {
		if msg.IsInbound() && !msg.IsRead {
			count++
		}
	}
	return count
}

// Normalize recomputes the derived fields from the message list.
func (t *Thread) Normalize() {
	if last := t.LastMessage(); last != nil {
		t.LastUpdated = last.Timestamp
	}
	t.UnreadCount = t.CountUnread()
}

// CloneThreads deep copies a thread collection.
func CloneThreads(threads []*Thread) []*Thread {
	out := make([]*Thread, len(threads))
	for i, thread := range threads {
		out[i] = thread.Clone()
	}
	return out
}
