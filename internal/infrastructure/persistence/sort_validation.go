package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
// Sort fields are interpolated into ORDER BY, so anything not whitelisted is
// rejected.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"number":         true,
	"name":           true,
	"counterparty":   true,
	"type":           true,
	"status":         true,
	"value":          true,
	"currency":       true,
	"effective_date": true,
	"expiry_date":    true,
	"submitted_at":   true,
	"decided_at":     true,
}

// ClauseSortFields contains allowed sort fields for library clauses
var ClauseSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"title":       true,
	"category":    true,
	"usage_count": true,
}

// ObligationSortFields contains allowed sort fields for obligations
var ObligationSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"due_date":     true,
	"status":       true,
	"owner":        true,
	"recurrence":   true,
	"completed_at": true,
}

// ReviewSortFields contains allowed sort fields for contract reviews
var ReviewSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"model":      true,
}

// OrderSortFields contains allowed sort fields for mirrored NetSuite orders.
// Sales and work orders share the same sortable header columns.
var OrderSortFields = map[string]bool{
	"internal_id": true,
	"tran_id":     true,
	"tran_date":   true,
	"status":      true,
	"total":       true,
	"quantity":    true,
	"synced_at":   true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"display_name":  true,
	"status":        true,
	"last_login_at": true,
}
