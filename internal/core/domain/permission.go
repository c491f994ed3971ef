package domain

import "sort"

// Permission codes. The catalog is fixed reference data; new codes require a
// schema migration, not a runtime insert.
const (
	PermView   = "VIEW"
	PermCreate = "CREATE"
	PermEdit   = "EDIT"
	PermDelete = "DELETE"
	PermBulk   = "BULK"
)

// Permission is a catalog entry describing one grantable capability.
type Permission struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Catalog is the full, fixed set of permission codes in a stable order.
// Admins implicitly hold every entry; keep this the single place the full set
// is enumerated.
func Catalog() []string {
	return []string{PermView, PermCreate, PermEdit, PermDelete, PermBulk}
}

// ResolvePermissions computes a user's effective permission codes.
//
// Admins receive the full catalog regardless of stored grants (which should be
// empty for them and are ignored). Employees receive their granted codes
// verbatim, deduplicated and sorted for stable token payloads.
func ResolvePermissions(role string, granted []string) []string {
	if role == RoleAdmin {
		return Catalog()
	}

	seen := make(map[string]struct{}, len(granted))
	codes := make([]string, 0, len(granted))
	for _, code := range granted {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ValidateGrantSet checks the internal consistency of an employee grant set.
// BULK is only meaningful alongside EDIT or DELETE; a set that grants bulk
// operations without either is rejected.
func ValidateGrantSet(codes []string) error {
	var hasBulk, hasEditOrDelete bool
	for _, code := range codes {
		switch code {
		case PermBulk:
			hasBulk = true
		case PermEdit, PermDelete:
			hasEditOrDelete = true
		case PermView, PermCreate:
		default:
			return ErrUnknownPermission
		}
	}
	if hasBulk && !hasEditOrDelete {
		return ErrBulkRequiresEditOrDelete
	}
	return nil
}

// HasPermission reports whether code is present in an effective permission
// list, as embedded in an access token.
func HasPermission(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
