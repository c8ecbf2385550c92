package models

import (
	"time"
)

// Settings is the user's preferences, stored as one JSON object.
type Settings struct {
	Profile       ProfileSettings      `json:"profile"`
	Appearance    AppearanceSettings   `json:"appearance"`
	Notifications NotificationSettings `json:"notifications"`
	Security      SecuritySettings     `json:"security"`
}

type ProfileSettings struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	JobTitle   string `json:"jobTitle"`
	Department string `json:"department"`
	TimeZone   string `json:"timeZone"`
	Language   string `json:"language"`
}

type AppearanceSettings struct {
	Theme            string `json:"theme"`
	ColorScheme      string `json:"colorScheme"`
	Density          string `json:"density"`
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
}

type NotificationSettings struct {
	Email           bool `json:"email"`
	Push            bool `json:"push"`
	SMS             bool `json:"sms"`
	InApp           bool `json:"inApp"`
	NewCustomer     bool `json:"newCustomer"`
	TaskReminders   bool `json:"taskReminders"`
	SystemUpdates   bool `json:"systemUpdates"`
	MarketingEmails bool `json:"marketingEmails"`
}

type SecuritySettings struct {
	TwoFactorAuth       bool       `json:"twoFactorAuth"`
	SessionTimeout      int        `json:"sessionTimeout"` // minutes
	PasswordLastChanged *time.Time `json:"passwordLastChanged"`
}

// Clone returns a copy that shares nothing with s.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}

	clone := *s
	if s.Security.PasswordLastChanged != nil {
		changed := *s.Security.PasswordLastChanged
		clone.Security.PasswordLastChanged = &changed
	}
	return &clone
}
