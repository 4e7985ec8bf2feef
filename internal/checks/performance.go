package checks

import (
	"fmt"

	"dealerwatch/internal/fetch"
	"dealerwatch/internal/models"
)

// Fixed scores pending a PageSpeed integration. The alert thresholds sit
// below these values so they stay quiet until real data flows.
const (
	placeholderMobileScore  = 75
	placeholderDesktopScore = 85
)

const (
	pageSizeWarnKB  = 5000
	loadTimeWarnSec = 5.0
)

// Performance is the page-weight verdict for one pass. Findings here are
// advisory: a heavy or slow page degrades to YELLOW, never RED.
type Performance struct {
	PageSizeKB      int
	LoadTimeSeconds float64
	MobileScore     int
	DesktopScore    int
	Issues          []models.Issue
}

// CheckPerformance derives page weight and load time from the fetch that
// already happened; it never touches the network.
func CheckPerformance(page *fetch.Result) Performance {
	p := Performance{
		MobileScore:  placeholderMobileScore,
		DesktopScore: placeholderDesktopScore,
	}
	if page == nil {
		return p
	}

	p.PageSizeKB = len(page.HTML) / 1024
	p.LoadTimeSeconds = page.ResponseTime.Seconds()

	if p.PageSizeKB > pageSizeWarnKB {
		p.Issues = append(p.Issues, models.Issue{
			Type:     "large_page_size",
			Severity: models.StatusYellow,
			Message:  fmt.Sprintf("homepage is %dKB", p.PageSizeKB),
		})
	}
	if p.LoadTimeSeconds > loadTimeWarnSec {
		p.Issues = append(p.Issues, models.Issue{
			Type:     "slow_response",
			Severity: models.StatusYellow,
			Message:  fmt.Sprintf("homepage took %.1fs to load", p.LoadTimeSeconds),
		})
	}
	return p
}
