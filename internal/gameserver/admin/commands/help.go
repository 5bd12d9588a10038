package commands

import (
	"github.com/udisondev/raidgate/internal/i18n"
	"github.com/udisondev/raidgate/internal/model"
)

// Help handles /help with the raid hours in UTC.
type Help struct {
	windows WindowSource
	catalog *i18n.Catalog
}

func NewHelp(windows WindowSource, catalog *i18n.Catalog) *Help {
	return &Help{windows: windows, catalog: catalog}
}

func (c *Help) Names() []string { return []string{"help"} }

func (c *Help) Handle(player *model.Player, _ string) (string, error) {
	var lang string
	if player != nil {
		lang = player.Language
	}

	w := c.windows.Current()
	if !w.IsConfigured() {
		return c.catalog.Sprintf(lang, i18n.KeyNoWindow), nil
	}
	return c.catalog.Sprintf(lang, i18n.KeyHelp, w.Start().String(), w.End().String()), nil
}
