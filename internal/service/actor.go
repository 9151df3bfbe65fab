package service

import "github.com/noah-isme/classroom-api/internal/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the caller is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsStudent reports whether the caller is a student.
func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

// Owns reports whether the caller may mutate an entity owned by ownerID.
func (a Actor) Owns(ownerID uint) bool {
	return a.IsAdmin() || (a.ID != 0 && a.ID == ownerID)
}

// scope returns nil for administrators, who see every owner's data.
func (a Actor) scope() *uint {
	if a.IsAdmin() {
		return nil
	}
	id := a.ID
	return &id
}
