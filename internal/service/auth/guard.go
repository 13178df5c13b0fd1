package auth

// CheckOwner enforces that the authenticated principal owns the resource
// named in the request path. It is a pure comparison with no side effects
// and fails closed: an absent or nonsensical principal is never allowed
// through.
func CheckOwner(principalID, resourceOwnerID int64) error {
	if principalID <= 0 || resourceOwnerID <= 0 {
		return ErrForbidden
	}
	if principalID != resourceOwnerID {
		return ErrForbidden
	}
	return nil
}
