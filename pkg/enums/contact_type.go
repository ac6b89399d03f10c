package enums

import (
	"fmt"
	"strings"
)

// ContactType maps to the contact_type enum in Postgres.
type ContactType string

const (
	ContactTypeEmail ContactType = "email"
	ContactTypePhone ContactType = "phone"
)

var validContactTypes = []ContactType{
	ContactTypeEmail,
	ContactTypePhone,
}

// String implements fmt.Stringer.
func (c ContactType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContactType.
func (c ContactType) IsValid() bool {
	for _, candidate := range validContactTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactType accepts any casing ("EMAIL", "phone").
func ParseContactType(value string) (ContactType, error) {
	normalized := ContactType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid contact type %q", value)
}

// NotificationChannel is the delivery channel a notifier publishes to.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

func (c NotificationChannel) String() string {
	return string(c)
}
