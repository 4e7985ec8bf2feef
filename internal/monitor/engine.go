package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"dealerwatch/internal/checks"
	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
	"dealerwatch/internal/store"
)

// Alerter reconciles a profile's alerts against a fresh result.
type Alerter interface {
	Process(ctx context.Context, profile *models.Profile, result *models.CheckResult) error
}

// Publisher pushes a saved result to live subscribers. Optional.
type Publisher interface {
	PublishResult(result *models.CheckResult)
}

// Engine executes one full check pass per profile and persists the outcome.
type Engine struct {
	fetcher   checks.Fetcher
	store     *store.Store
	alerter   Alerter
	publisher Publisher
	log       *zap.SugaredLogger
}

// NewEngine wires a pass executor. publisher may be nil.
func NewEngine(fetcher checks.Fetcher, s *store.Store, alerter Alerter, publisher Publisher) *Engine {
	return &Engine{
		fetcher:   fetcher,
		store:     s,
		alerter:   alerter,
		publisher: publisher,
		log:       logging.Named("monitor"),
	}
}

// RunFullCheck performs every site check for the profile and returns the
// evaluated result. It never persists anything.
func (e *Engine) RunFullCheck(ctx context.Context, profile *models.Profile) *models.CheckResult {
	now := time.Now()
	result := &models.CheckResult{
		ID:             models.NewResultID(now),
		ProfileID:      profile.ID,
		CheckTimestamp: now,
	}

	page, conn := checks.CheckConnectivity(ctx, e.fetcher, profile.WebsiteURL)
	result.IsReachable = conn.Reachable
	result.ResponseTimeMS = conn.ResponseTimeMS
	result.HTTPStatusCode = conn.StatusCode
	result.ErrorDetails = conn.ErrorDetails
	if page != nil {
		result.FetchMethod = page.Method
	}

	if !conn.Reachable {
		// Nothing else can be measured on a dead site. Unmeasured fields
		// default to healthy so an outage raises exactly one alert instead
		// of cascading into SSL and content alerts too.
		result.SSLValid = true
		result.SSLExpiryDays = 90
		result.FormsWorking = true
		result.PhoneNumbersValid = true
		result.InventoryCount = 100
		result.MobileScore = 75
		result.DesktopScore = 85
		result.IssuesFound = append(result.IssuesFound, models.Issue{
			Type:     "website_down",
			Severity: models.StatusRed,
			Message:  "website is unreachable",
			Details:  conn.ErrorDetails,
		})
		result.OverallStatus = models.StatusRed
		return result
	}

	// The remaining checks are independent of each other.
	var (
		wg   sync.WaitGroup
		tls  checks.TLSStatus
		body checks.Content
		perf checks.Performance
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		tls = checks.CheckTLS(profile.WebsiteURL, page, now)
	}()
	go func() {
		defer wg.Done()
		body = checks.CheckContent(page.HTML, now)
	}()
	go func() {
		defer wg.Done()
		perf = checks.CheckPerformance(page)
	}()
	wg.Wait()

	result.SSLValid = tls.Valid
	result.SSLExpiryDays = tls.ExpiryDays
	result.CDNProtected = tls.CDNProtected
	result.FormsWorking = body.FormsWorking
	result.PhoneNumbersValid = body.PhoneNumbersValid
	result.InventoryCount = body.InventoryCount
	result.ExpiredOfferFound = body.ExpiredOfferFound
	result.PageSizeKB = perf.PageSizeKB
	result.LoadTimeSeconds = perf.LoadTimeSeconds
	result.MobileScore = perf.MobileScore
	result.DesktopScore = perf.DesktopScore

	result.IssuesFound = append(result.IssuesFound, tls.Issues...)
	result.IssuesFound = append(result.IssuesFound, body.Issues...)
	result.IssuesFound = append(result.IssuesFound, perf.Issues...)

	result.OverallStatus = checks.EvaluateStatus(result)
	return result
}

// CheckProfile runs a full pass and handles the bookkeeping around it:
// persisting the result, reconciling alerts, stamping last-check, and
// publishing to live subscribers. Errors degrade this profile's pass only.
func (e *Engine) CheckProfile(ctx context.Context, profile *models.Profile) (*models.CheckResult, error) {
	e.log.Infow("check started", "profile_id", profile.ID, "dealer", profile.DealerName, "url", profile.WebsiteURL)

	result := e.RunFullCheck(ctx, profile)

	if err := e.store.Results.Save(result); err != nil {
		return nil, err
	}
	if err := e.alerter.Process(ctx, profile, result); err != nil {
		e.log.Errorw("alert reconciliation failed", "profile_id", profile.ID, "error", err)
	}
	// Stamped even on a failed pass so a broken site is retried on its
	// normal cadence instead of hot-looping.
	if err := e.store.Profiles.TouchLastCheck(profile.ID, result.CheckTimestamp); err != nil {
		e.log.Errorw("failed to stamp last check", "profile_id", profile.ID, "error", err)
	}
	if e.publisher != nil {
		e.publisher.PublishResult(result)
	}

	e.log.Infow("check finished",
		"profile_id", profile.ID,
		"status", result.OverallStatus,
		"fetch_method", result.FetchMethod,
		"response_ms", result.ResponseTimeMS)
	return result, nil
}
