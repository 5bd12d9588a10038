package model

// Capability keys understood by the raid gate.
const (
	// PermProtect marks players whose structures are raid-protected when
	// protection is opt-in (permissions.require_protect).
	PermProtect = "raidgate.protect"
	// PermCheck allows the raiding status command when it is restricted
	// (permissions.require_check).
	PermCheck = "raidgate.check"
)

// KnownPermissions lists every capability key.
var KnownPermissions = []string{PermProtect, PermCheck}
