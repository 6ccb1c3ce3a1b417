// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"strings"
)

// Common key prefixes
const (
	// Entity prefixes
	KeyPrefixCalendarType = "calendar-type"
	KeyPrefixCalendar     = "calendar"
	KeyPrefixEvent        = "event"
	KeyPrefixApproval     = "approval"
	KeyPrefixPermission   = "permission"
	KeyPrefixAttendee     = "attendee"
	KeyPrefixSync         = "sync"
	KeyPrefixAvailability = "availability"
	KeyPrefixConflict     = "conflict"
)

// KeyBuilder provides utilities for building consistent NATS KV keys.
// Keys use '.' separators so they remain valid NATS KV keys without
// additional encoding.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
	}
}

// EntityKey builds a key for an entity (e.g., "event.uid-123")
func (kb *KeyBuilder) EntityKey(entityType, uid string) string {
	return kb.applyPrefix(fmt.Sprintf("%s.%s", entityType, uid))
}

// ScopedKey builds a key for an entity scoped under a parent
// (e.g., "attendee.event-uid.attendee-uid").
func (kb *KeyBuilder) ScopedKey(entityType, scopeUID, uid string) string {
	return kb.applyPrefix(fmt.Sprintf("%s.%s.%s", entityType, scopeUID, uid))
}

// SourceScopedKey builds a key for availability blocks grouped by
// (user, source) so a whole source can be swept with one prefix scan
// (e.g., "availability.user-uid.google.block-uid").
func (kb *KeyBuilder) SourceScopedKey(entityType, userUID, source, uid string) string {
	return kb.applyPrefix(fmt.Sprintf("%s.%s.%s.%s", entityType, userUID, sanitizeKeyPart(source), uid))
}

// SourcePrefix returns the key prefix covering every block for (user, source).
func (kb *KeyBuilder) SourcePrefix(entityType, userUID, source string) string {
	return kb.applyPrefix(fmt.Sprintf("%s.%s.%s.", entityType, userUID, sanitizeKeyPart(source)))
}

// ScopePrefix returns the key prefix covering every entity under a parent.
func (kb *KeyBuilder) ScopePrefix(entityType, scopeUID string) string {
	return kb.applyPrefix(fmt.Sprintf("%s.%s.", entityType, scopeUID))
}

// applyPrefix adds the builder's prefix if one is set
func (kb *KeyBuilder) applyPrefix(key string) string {
	if kb.prefix == "" {
		return key
	}
	return kb.prefix + "." + key
}

// sanitizeKeyPart replaces characters that are not valid in NATS KV keys.
func sanitizeKeyPart(part string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, part)
}
