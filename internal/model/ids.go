package model

import "strconv"

// PlayerID is a stable player identifier (Steam-style 64-bit id).
type PlayerID uint64

// playerIDBase is the first value above which ids belong to real players.
// Everything at or below it (0, 1, NPC and server-owned ids) is not a player.
const playerIDBase PlayerID = 76561197960265728

// IsPlayer reports whether id belongs to a real player account.
func (id PlayerID) IsPlayer() bool {
	return id > playerIDBase
}

// String returns the decimal form of the id.
func (id PlayerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParsePlayerID parses a decimal player id.
func ParsePlayerID(s string) (PlayerID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PlayerID(v), nil
}
