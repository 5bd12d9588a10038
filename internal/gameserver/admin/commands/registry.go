package commands

import "github.com/udisondev/raidgate/internal/gameserver/admin"

// RegisterAll registers the raid commands into the handler.
// reloader may be nil, in which case //raidreload is not offered.
func RegisterAll(h *admin.Handler, raiding *Raiding, help *Help, reloader Reloader) {
	// User commands (/ prefix)
	h.RegisterUser(raiding)
	h.RegisterUser(help)

	// Admin commands (// prefix)
	if reloader != nil {
		h.RegisterAdmin(NewRaidReload(reloader))
	}
}
