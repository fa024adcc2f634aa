// Package authz describes the requesting principal as seen by query builders.
// Policy evaluation happens elsewhere; builders only consume the answers.
package authz

// Principal is the current user with yes/no capability predicates.
// A nil Principal is an anonymous request.
type Principal interface {
	ID() int64
	CanReadAllResources() bool
	CanAdminAllResources() bool
	IsExternal() bool
}

// User is a value Principal assembled from already-evaluated policy answers.
type User struct {
	UserID   int64 `json:"id"`
	ReadAll  bool  `json:"can_read_all_resources"`
	AdminAll bool  `json:"can_admin_all_resources"`
	External bool  `json:"external"`
}

// ID returns the user id.
func (u User) ID() int64 { return u.UserID }

// CanReadAllResources reports whether the user bypasses visibility rules (admins, auditors).
func (u User) CanReadAllResources() bool { return u.ReadAll }

// CanAdminAllResources reports whether the user administers the instance.
func (u User) CanAdminAllResources() bool { return u.AdminAll }

// IsExternal reports whether the user is restricted to explicit memberships.
func (u User) IsExternal() bool { return u.External }

// CanReadAll is a nil-safe CanReadAllResources.
func CanReadAll(p Principal) bool {
	return p != nil && p.CanReadAllResources()
}

// CanAdminAll is a nil-safe CanAdminAllResources.
func CanAdminAll(p Principal) bool {
	return p != nil && p.CanAdminAllResources()
}
