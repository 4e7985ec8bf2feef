package checks

import "dealerwatch/internal/models"

// EvaluateStatus collapses a completed pass into the overall light. The
// waterfall is strict: any condition that means customers cannot do business
// with the dealer is RED; degraded-but-working conditions are YELLOW;
// everything else is GREEN. Performance findings alone never reach RED —
// escalation for extreme slowness is the alert rules' job.
func EvaluateStatus(r *models.CheckResult) string {
	if !r.IsReachable || !r.SSLValid || r.InventoryCount == 0 {
		return models.StatusRed
	}

	switch {
	case r.SSLExpiryDays < 30,
		!r.FormsWorking,
		!r.PhoneNumbersValid,
		r.InventoryCount < 50,
		r.LoadTimeSeconds > 5,
		r.MobileScore < 70,
		r.ExpiredOfferFound:
		return models.StatusYellow
	}

	return models.StatusGreen
}
