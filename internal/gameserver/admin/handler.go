package admin

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/udisondev/raidgate/internal/model"
)

// Command is the interface for admin commands (//command).
// Each command registers one or more names and a required access level.
type Command interface {
	// Handle executes the command and returns the reply. args includes command name at [0].
	Handle(player *model.Player, args []string) (string, error)
	// Names returns all registered command names (without // prefix).
	Names() []string
	// RequiredAccessLevel returns the minimum access level to use this command.
	RequiredAccessLevel() int32
}

// UserCommand is the interface for user commands (/command).
// Available to all players (no access level check).
type UserCommand interface {
	// Handle executes the user command. params is the rest of the message after command name.
	Handle(player *model.Player, params string) (string, error)
	// Names returns all registered command names (without / prefix).
	Names() []string
}

// Handler dispatches admin (//) and user (/) commands.
// Thread-safe: commands are registered once at startup, then read-only.
type Handler struct {
	mu        sync.RWMutex
	adminCmds map[string]Command     // name → Command (lowercase)
	userCmds  map[string]UserCommand // name → UserCommand (lowercase)
}

// NewHandler creates a new admin/user command handler.
func NewHandler() *Handler {
	return &Handler{
		adminCmds: make(map[string]Command, 8),
		userCmds:  make(map[string]UserCommand, 8),
	}
}

// RegisterAdmin registers an admin command.
// All command names are lowercased for case-insensitive lookup.
func (h *Handler) RegisterAdmin(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range cmd.Names() {
		h.adminCmds[strings.ToLower(name)] = cmd
	}
}

// RegisterUser registers a user command.
func (h *Handler) RegisterUser(cmd UserCommand) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range cmd.Names() {
		h.userCmds[strings.ToLower(name)] = cmd
	}
}

// Dispatch routes a raw chat line: "//x" to admin commands, "/x" to user
// commands. Returns the reply and whether a command handled the line.
func (h *Handler) Dispatch(player *model.Player, text string) (string, bool) {
	switch {
	case strings.HasPrefix(text, "//"):
		return h.HandleAdminCommand(player, text[2:])
	case strings.HasPrefix(text, "/"):
		return h.HandleUserCommand(player, text[1:])
	default:
		return "", false
	}
}

// HandleAdminCommand processes a message starting with //.
// text is the full message WITHOUT the // prefix.
func (h *Handler) HandleAdminCommand(player *model.Player, text string) (string, bool) {
	parts := strings.Fields(text)
	if player == nil || len(parts) == 0 {
		return "", false
	}
	cmdName := strings.ToLower(parts[0])

	h.mu.RLock()
	cmd, ok := h.adminCmds[cmdName]
	h.mu.RUnlock()

	if !ok {
		return "Unknown command: //" + cmdName, false
	}

	al := GetAccessLevel(player.AccessLevel)
	if al == nil || !al.CanUseAdminCommands {
		slog.Warn("unauthorized admin command attempt",
			"player", player.Name,
			"command", cmdName,
			"accessLevel", player.AccessLevel)
		return "", false
	}

	if player.AccessLevel < cmd.RequiredAccessLevel() {
		slog.Warn("admin command access denied",
			"player", player.Name,
			"command", cmdName,
			"required", cmd.RequiredAccessLevel(),
			"actual", player.AccessLevel)
		return fmt.Sprintf("Insufficient access level for //%s (need %d, have %d)",
			cmdName, cmd.RequiredAccessLevel(), player.AccessLevel), false
	}

	slog.Info("admin command",
		"player", player.Name,
		"command", text)

	reply, err := cmd.Handle(player, parts)
	if err != nil {
		slog.Error("admin command failed",
			"player", player.Name,
			"command", text,
			"error", err)
		return fmt.Sprintf("Command error: %s", err), true
	}
	return reply, true
}

// HandleUserCommand processes a message starting with /.
// text is the full message WITHOUT the / prefix.
func (h *Handler) HandleUserCommand(player *model.Player, text string) (string, bool) {
	parts := strings.Fields(text)
	if player == nil || len(parts) == 0 {
		return "", false
	}
	cmdName := strings.ToLower(parts[0])

	h.mu.RLock()
	cmd, ok := h.userCmds[cmdName]
	h.mu.RUnlock()

	if !ok {
		return "", false
	}

	// Everything after command name.
	text = strings.TrimSpace(text)
	params := strings.TrimSpace(text[len(parts[0]):])

	reply, err := cmd.Handle(player, params)
	if err != nil {
		slog.Error("user command failed",
			"player", player.Name,
			"command", text,
			"error", err)
		return fmt.Sprintf("Command error: %s", err), true
	}
	return reply, true
}

// AdminCommandCount returns number of registered admin commands.
func (h *Handler) AdminCommandCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.adminCmds)
}

// UserCommandCount returns number of registered user commands.
func (h *Handler) UserCommandCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userCmds)
}
