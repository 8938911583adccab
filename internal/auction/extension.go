package auction

import "time"

const (
	// ExtensionWindow is how close to the end date a bid must land to
	// trigger an anti-snipe extension.
	ExtensionWindow = time.Hour

	// ExtensionBump is how far each extension pushes the end date.
	ExtensionBump = 10 * time.Minute
)

// ApplyExtension pushes the end date back when a bid lands inside the closing
// window of an extension-enabled auction. Extensions never push the end date
// past HardCloseDate, so a contested auction still closes eventually.
// Returns true when the auction was extended.
func ApplyExtension(a *Auction, now time.Time) bool {
	if !a.AntiSniping || !a.Status.Open() {
		return false
	}
	remaining := a.EndDate.Sub(now)
	if remaining <= 0 || remaining > ExtensionWindow {
		return false
	}
	next := a.EndDate.Add(ExtensionBump)
	if !a.HardCloseDate.IsZero() && next.After(a.HardCloseDate) {
		return false
	}
	a.EndDate = next
	a.Status = StatusExtended
	return true
}
