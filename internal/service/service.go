// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package service

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// FirstApproverUID is the configured first-stage approver identity.
	FirstApproverUID string
	// FirstApproverEmail receives approval-request emails for stage one.
	FirstApproverEmail string
	// FinalApproverUID is the configured final-stage approver identity.
	FinalApproverUID string
	// FinalApproverEmail receives approval-request emails for stage two.
	FinalApproverEmail string
	// SyncWorkerCount bounds how many sync cycles run concurrently.
	SyncWorkerCount int
	// NotificationsEnabled turns human-facing email notifications on.
	NotificationsEnabled bool
}
