// Package task owns the user-visible task lifecycle for the intake service:
// the Task state machine, its persistence, and the command surface that
// writes task changes and their outbox rows in one transaction.
package task

import "strings"

// Priority is a closed enumeration of well-known task priorities.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// ParsePriority resolves a priority case-insensitively. Unrecognized input
// falls back to Medium rather than failing; callers relying on strictness
// must use ValidPriority.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// Level returns the numeric ordering of the priority (higher is more urgent).
func (p Priority) Level() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 2
	}
}

// Type is a closed enumeration of well-known task types.
type Type string

const (
	TypeReport         Type = "Report"
	TypeEmail          Type = "Email"
	TypeDataProcessing Type = "DataProcessing"
	TypeNotification   Type = "Notification"
	TypeBackup         Type = "Backup"
)

// ParseType resolves a task type case-insensitively, falling back to Report
// for unrecognized input.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "report":
		return TypeReport
	case "email":
		return TypeEmail
	case "dataprocessing":
		return TypeDataProcessing
	case "notification":
		return TypeNotification
	case "backup":
		return TypeBackup
	default:
		return TypeReport
	}
}

// ValidType reports whether the input names a known task type exactly
// (case-insensitively), without the fallback.
func ValidType(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "report", "email", "dataprocessing", "notification", "backup":
		return true
	default:
		return false
	}
}

// ValidPriority reports whether the input names a known priority exactly
// (case-insensitively), without the fallback.
func ValidPriority(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "medium", "high", "critical":
		return true
	default:
		return false
	}
}
