package raid

import (
	"fmt"
	"strings"
	"time"

	"github.com/udisondev/raidgate/internal/i18n"
)

// Reporter renders the raid status shown by the raiding command.
type Reporter struct {
	schedule *Schedule
	catalog  *i18n.Catalog
}

// NewReporter creates a status reporter.
func NewReporter(schedule *Schedule, catalog *i18n.Catalog) *Reporter {
	return &Reporter{schedule: schedule, catalog: catalog}
}

// Status returns the raid status at now in the default language.
func (r *Reporter) Status(now time.Time) string {
	return r.StatusFor(now, "")
}

// StatusFor returns the raid status at now in lang.
//
// Times are whole hours: the window opens and closes on the hour, so the
// countdown targets HH:00 rather than the configured minutes.
func (r *Reporter) StatusFor(now time.Time, lang string) string {
	now = now.UTC()
	w := r.schedule.Current()
	p := r.catalog.Printer(lang)

	var lines []string
	switch {
	case !w.IsConfigured():
		lines = append(lines,
			p.Sprintf(i18n.KeyRaidingOn),
			p.Sprintf(i18n.KeyNoWindow))

	case w.IsEmpty():
		lines = append(lines,
			p.Sprintf(i18n.KeyRaidingOff),
			p.Sprintf(i18n.KeyNoHours))

	case w.IsRaidTime(now):
		closes := w.NextClose(now)
		h, m := splitDuration(closes.Sub(now))
		lines = append(lines,
			p.Sprintf(i18n.KeyRaidingOn)+" "+p.Sprintf(i18n.KeyRaidingEnds, clockString(closes)),
			p.Sprintf(i18n.KeyTimeLeft, h, m))

	default:
		opens := w.NextOpen(now)
		h, m := splitDuration(opens.Sub(now))
		lines = append(lines,
			p.Sprintf(i18n.KeyRaidingOff)+" "+p.Sprintf(i18n.KeyRaidingBegins, clockString(opens)),
			p.Sprintf(i18n.KeyTimeUntil, h, m))
	}
	return strings.Join(lines, "\n")
}

// splitDuration returns zero-padded hours and minutes of d, rounding
// seconds up so "00 minutes" is never shown while time remains.
func splitDuration(d time.Duration) (hours, minutes string) {
	total := int((d + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%02d", total/60), fmt.Sprintf("%02d", total%60)
}

func clockString(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
