// Package admin dispatches player (/) and admin (//) chat commands and holds
// the capability grants used by the raid gate.
package admin

// AccessLevel defines a GM access level with associated permissions.
// Level 0 = normal player, 1+ = GM, 100+ = full admin.
type AccessLevel struct {
	Level               int32
	Name                string
	IsGM                bool
	CanUseAdminCommands bool
}

var defaultAccessLevels = map[int32]*AccessLevel{
	0: {
		Level: 0,
		Name:  "User",
	},
	1: {
		Level:               1,
		Name:                "Moderator",
		IsGM:                true,
		CanUseAdminCommands: true,
	},
	2: {
		Level:               2,
		Name:                "Game Master",
		IsGM:                true,
		CanUseAdminCommands: true,
	},
	100: {
		Level:               100,
		Name:                "Administrator",
		IsGM:                true,
		CanUseAdminCommands: true,
	},
}

// GetAccessLevel returns AccessLevel for the given level value.
// Unknown levels inherit from the highest matching known level below them.
// Negative levels (banned) return nil.
func GetAccessLevel(level int32) *AccessLevel {
	if level < 0 {
		return nil
	}

	if al, ok := defaultAccessLevels[level]; ok {
		return al
	}

	var best *AccessLevel
	for _, al := range defaultAccessLevels {
		if al.Level <= level && (best == nil || al.Level > best.Level) {
			best = al
		}
	}
	return best
}
