// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"strings"
	"testing"
)

func TestKeyBuilder_EntityKey(t *testing.T) {
	kb := NewKeyBuilder("")
	key := kb.EntityKey(KeyPrefixEvent, "uid-123")
	if key != "event.uid-123" {
		t.Errorf("expected event.uid-123, got %s", key)
	}
}

func TestKeyBuilder_EntityKey_WithPrefix(t *testing.T) {
	kb := NewKeyBuilder("tenant-1")
	key := kb.EntityKey(KeyPrefixCalendar, "uid-123")
	if key != "tenant-1.calendar.uid-123" {
		t.Errorf("expected tenant-1.calendar.uid-123, got %s", key)
	}
}

func TestKeyBuilder_ScopedKey(t *testing.T) {
	kb := NewKeyBuilder("")
	key := kb.ScopedKey(KeyPrefixApproval, "event-1", "approval-1")
	if key != "approval.event-1.approval-1" {
		t.Errorf("expected approval.event-1.approval-1, got %s", key)
	}
	if !strings.HasPrefix(key, kb.ScopePrefix(KeyPrefixApproval, "event-1")) {
		t.Error("expected scoped key to share the scope prefix")
	}
}

func TestKeyBuilder_SourceScopedKey_SanitizesSource(t *testing.T) {
	kb := NewKeyBuilder("")
	key := kb.SourceScopedKey(KeyPrefixAvailability, "user-1", "google:work", "block-1")
	if key != "availability.user-1.google_work.block-1" {
		t.Errorf("expected sanitized source in key, got %s", key)
	}
	if !strings.HasPrefix(key, kb.SourcePrefix(KeyPrefixAvailability, "user-1", "google:work")) {
		t.Error("expected source-scoped key to share the source prefix")
	}
}
