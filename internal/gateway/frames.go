package gateway

import (
	"encoding/json"

	"github.com/udisondev/raidgate/internal/gameserver/clan"
	"github.com/udisondev/raidgate/internal/model"
)

// Host → gate frame types.
const (
	TypeDamage  = "damage"
	TypeCommand = "command"
	TypeTeam    = "team"
	TypeClan    = "clan"
)

// Gate → host frame types.
const (
	TypeDecision = "decision"
	TypeReply    = "reply"
	TypeUIShow   = "ui_show"
	TypeUIHide   = "ui_hide"
	TypeSound    = "sound"
	TypeError    = "error"
)

// BaseFrame carries the fields common to every frame.
type BaseFrame struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq,omitempty"`
}

// DecodeBase reads only the type and sequence number of a frame.
func DecodeBase(b []byte) (BaseFrame, error) {
	var f BaseFrame
	err := json.Unmarshal(b, &f)
	return f, err
}

// DamageFrame asks for a decision on one hit.
type DamageFrame struct {
	BaseFrame
	Entity *model.Entity  `json:"entity"`
	Hit    *model.HitInfo `json:"hit"`
}

// CommandFrame forwards a chat line starting with / or //.
type CommandFrame struct {
	BaseFrame
	Player *model.Player `json:"player"`
	Text   string        `json:"text"`
}

// TeamFrame replaces the roster of the leader's team. No members disbands it.
type TeamFrame struct {
	BaseFrame
	Leader  model.PlayerID   `json:"leader"`
	Members []model.PlayerID `json:"members"`
}

// ClanFrame upserts a clan, or removes it when Disband is set.
type ClanFrame struct {
	BaseFrame
	clan.Snapshot
	Disband bool `json:"disband,omitempty"`
}

// DecisionFrame answers a DamageFrame. Hit is the possibly neutralized copy.
type DecisionFrame struct {
	BaseFrame
	Outcome string         `json:"outcome"`
	Reason  string         `json:"reason"`
	Hit     *model.HitInfo `json:"hit,omitempty"`
}

// ReplyFrame answers a CommandFrame.
type ReplyFrame struct {
	BaseFrame
	Handled bool   `json:"handled"`
	Text    string `json:"text,omitempty"`
}

// UIShowFrame puts a message on a player's screen.
type UIShowFrame struct {
	BaseFrame
	Player model.PlayerID `json:"player"`
	Text   string         `json:"text"`
}

// UIHideFrame removes the message from a player's screen.
type UIHideFrame struct {
	BaseFrame
	Player model.PlayerID `json:"player"`
}

// SoundFrame plays an effect at a world position.
type SoundFrame struct {
	BaseFrame
	Path     string         `json:"path"`
	Position model.Position `json:"position"`
}

// ErrorFrame reports a frame the gate could not process.
type ErrorFrame struct {
	BaseFrame
	Message string `json:"message"`
}
