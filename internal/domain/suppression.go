package domain

// SuppressionReason enumerates why a contact must not be emailed.
type SuppressionReason string

const (
	ReasonDoNotContact SuppressionReason = "do_not_contact"
	ReasonStopSequence SuppressionReason = "stop_sequence"
	ReasonBounce       SuppressionReason = "bounce_detected"
)

// Suppression reports the first suppression flag set on c, checked in the
// order do-not-contact, stop, bounce.
func (c *Contact) Suppression() (SuppressionReason, bool) {
	switch {
	case c.DoNotContact:
		return ReasonDoNotContact, true
	case c.StopSequence:
		return ReasonStopSequence, true
	case c.BounceDetected:
		return ReasonBounce, true
	}
	return "", false
}
