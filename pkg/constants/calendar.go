// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Event and scheduling constraints
const (
	// MaxOccurrencesPerQuery caps how many occurrences of a recurring event a
	// single query window may materialize.
	MaxOccurrencesPerQuery = 365

	// MaxEventDurationMinutes is the maximum duration of a timed event.
	MaxEventDurationMinutes = 24 * 60
)

// External provider constraints
const (
	// ProviderFetchTimeout bounds a single remote calendar fetch or push.
	ProviderFetchTimeout = 30 * time.Second

	// MaxConsecutiveSyncFailures is the number of back-to-back failed sync
	// cycles after which a sync row escalates to disconnected.
	MaxConsecutiveSyncFailures = 3
)
