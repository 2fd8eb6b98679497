package unixfs

// CheckPermission compares a session against an inode's owner and mode
// bits, granting access iff every bit in `required` is set in the
// applicable triple. The group triple is present in the mode encoding but
// is never consulted; no group identity exists in this system.
func CheckPermission(session *Session, inode Inode, required uint16) bool {
	if session == nil {
		return false
	}
	if session.IsRoot {
		return true
	}

	var triple uint16
	if inode.Owner == session.UID {
		triple = (inode.Mode >> ModeOwnerShift) & 0b111
	} else {
		triple = (inode.Mode >> ModeOtherShift) & 0b111
	}

	return triple&required == required
}
