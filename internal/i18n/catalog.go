// Package i18n holds the player-facing strings of the raid gate and renders
// them in the player's language.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyProtection    = "raid.protection"
	KeyDenied        = "raid.denied"
	KeyRaidingOn     = "raid.status.on"
	KeyRaidingEnds   = "raid.status.ends"
	KeyTimeLeft      = "raid.status.left"
	KeyRaidingOff    = "raid.status.off"
	KeyRaidingBegins = "raid.status.begins"
	KeyTimeUntil     = "raid.status.until"
	KeyNoWindow      = "raid.status.no_window"
	KeyNoHours       = "raid.status.no_hours"
	KeyHelp          = "raid.help"
)

// Supported languages. The first entry is the fallback.
var supported = []language.Tag{language.English, language.Russian}

var entries = map[string][2]string{
	KeyProtection:    {"This building is protected: %d%%", "Это строение под защитой: %d%%"},
	KeyDenied:        {"You lack permission to do that", "У вас нет прав для этого"},
	KeyRaidingOn:     {"Raiding is currently on.", "Рейды сейчас разрешены."},
	KeyRaidingEnds:   {"Raiding ends at %s", "Рейды закончатся в %s"},
	KeyTimeLeft:      {"%s hours and %s minutes left of raiding", "До конца рейдов: %s ч %s мин"},
	KeyRaidingOff:    {"Raiding is not currently available.", "Рейды сейчас недоступны."},
	KeyRaidingBegins: {"Raiding begins at %s", "Рейды начнутся в %s"},
	KeyTimeUntil:     {"%s hours and %s minutes until raiding", "До начала рейдов: %s ч %s мин"},
	KeyNoWindow:      {"No raid window is configured.", "Время рейдов не настроено."},
	KeyNoHours:       {"No raiding hours are scheduled.", "Часы рейдов не запланированы."},
	KeyHelp:          {"Raiding available between %s and %s UTC", "Рейды доступны с %s до %s UTC"},
}

// Catalog renders message keys for a language.
// Immutable after New, safe for concurrent use.
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
	def     language.Tag
}

// New builds the catalog with every supported translation.
func New() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for key, texts := range entries {
		for i, tag := range supported {
			if err := b.SetString(tag, key, texts[i]); err != nil {
				return nil, fmt.Errorf("registering %s/%s: %w", tag, key, err)
			}
		}
	}
	return &Catalog{
		builder: b,
		matcher: language.NewMatcher(supported),
		def:     supported[0],
	}, nil
}

// MustNew is New for package-level wiring; it panics on a broken catalog.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// WithDefault returns a catalog that answers players without a language
// in lang. An unsupported lang leaves English as the default.
func (c *Catalog) WithDefault(lang string) *Catalog {
	cp := *c
	cp.def = c.Match(lang)
	return &cp
}

// Default returns the tag used for empty or unknown input.
func (c *Catalog) Default() language.Tag { return c.def }

// Match resolves a BCP-47 string to the closest supported tag.
// Unknown or empty input resolves to the catalog default.
func (c *Catalog) Match(lang string) language.Tag {
	if lang == "" {
		return c.def
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return c.def
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return c.def
	}
	return supported[idx]
}

// Printer returns a printer bound to the closest supported language.
func (c *Catalog) Printer(lang string) *message.Printer {
	return message.NewPrinter(c.Match(lang), message.Catalog(c.builder))
}

// Sprintf renders key in lang.
func (c *Catalog) Sprintf(lang, key string, args ...any) string {
	return c.Printer(lang).Sprintf(key, args...)
}
