package model

// Player is the subset of a connected player the raid gate needs.
type Player struct {
	ID          PlayerID `json:"id"`
	Name        string   `json:"name"`
	Language    string   `json:"language,omitempty"`     // BCP-47 tag, "" = server default
	AccessLevel int32    `json:"access_level,omitempty"` // 0 = user, 1+ = GM
	Position    Position `json:"position"`
}

// IsGM reports whether the player has any GM access level.
func (p *Player) IsGM() bool {
	return p != nil && p.AccessLevel > 0
}
