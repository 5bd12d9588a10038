package model

// Entity is a damageable world object as seen by the raid gate.
type Entity struct {
	NetID      uint64   `json:"net_id"`
	PrefabName string   `json:"prefab"` // short prefab name, e.g. "door.hinged.metal"
	OwnerID    PlayerID `json:"owner_id"`
	Position   Position `json:"position"`

	// BuildingBlock marks core building blocks (foundations, walls, floors).
	// They are always raid-protected regardless of the prefab list.
	BuildingBlock bool `json:"building_block,omitempty"`
}
