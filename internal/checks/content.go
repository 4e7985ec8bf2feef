package checks

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dealerwatch/internal/models"
)

var (
	phonePattern = regexp.MustCompile(`(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	// "expires 01/15/2026", "valid through 3/1/2026", "ends 12/31/2025"
	offerDatePattern = regexp.MustCompile(`(?i)(?:expires|valid through|ends)[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
)

// Content is the page-content verdict for one pass.
type Content struct {
	FormsWorking      bool
	PhoneNumbersValid bool
	InventoryCount    int
	ExpiredOfferFound bool
	Issues            []models.Issue
}

// CheckContent inspects the rendered page for the signals a working dealer
// site must show: some way for a customer to make contact, a phone number,
// and a vehicle inventory. Contact detection is a deliberately lenient OR of
// several signals; only the total absence of all of them is an issue, since
// dealer platforms vary wildly in how they build contact UIs.
func CheckContent(html string, now time.Time) Content {
	c := Content{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.Issues = append(c.Issues, models.Issue{
			Type:     "forms_not_working",
			Severity: models.StatusRed,
			Message:  "page could not be parsed",
			Details:  err.Error(),
		})
		return c
	}

	c.FormsWorking = hasContactMechanism(doc)
	if !c.FormsWorking {
		c.Issues = append(c.Issues, models.Issue{
			Type:     "forms_not_working",
			Severity: models.StatusRed,
			Message:  "no contact forms or contact links found on homepage",
		})
	}

	c.PhoneNumbersValid = phonePattern.MatchString(html)
	if !c.PhoneNumbersValid {
		c.Issues = append(c.Issues, models.Issue{
			Type:     "phone_numbers",
			Severity: models.StatusYellow,
			Message:  "no phone number found on homepage",
		})
	}

	c.InventoryCount = estimateInventory(doc)
	if c.InventoryCount == 0 {
		c.Issues = append(c.Issues, models.Issue{
			Type:     "no_inventory",
			Severity: models.StatusRed,
			Message:  "no vehicle inventory links found",
		})
	}

	if expired, detail := findExpiredOffer(html, now); expired {
		c.ExpiredOfferFound = true
		c.Issues = append(c.Issues, models.Issue{
			Type:     "expired_offer",
			Severity: models.StatusYellow,
			Message:  "page advertises an expired promotional offer",
			Details:  detail,
		})
	}

	return c
}

func hasContactMechanism(doc *goquery.Document) bool {
	if doc.Find("form").Length() > 0 {
		return true
	}
	if doc.Find("input, textarea").Length() > 0 {
		return true
	}
	if doc.Find(`a[href^="tel:"]`).Length() > 0 {
		return true
	}

	found := false
	doc.Find("a, button").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		text := strings.ToLower(sel.Text() + " " + href)
		if strings.Contains(text, "contact") {
			found = true
			return false
		}
		return true
	})
	return found
}

// estimateInventory reports whether inventory navigation exists at all. A
// real vehicle count needs a crawl of the listing pages, so presence maps to
// a nominal healthy count and absence to zero, which is the signal the
// health policy actually keys on.
func estimateInventory(doc *goquery.Document) int {
	found := false
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.ToLower(href)
		if strings.Contains(href, "inventory") || strings.Contains(href, "vehicles") {
			found = true
			return false
		}
		return true
	})
	if found {
		return 100
	}
	return 0
}

func findExpiredOffer(html string, now time.Time) (bool, string) {
	for _, match := range offerDatePattern.FindAllStringSubmatch(html, 10) {
		when, err := time.Parse("1/2/2006", match[1])
		if err != nil {
			continue
		}
		// The offer runs through the stated day.
		if now.After(when.Add(24 * time.Hour)) {
			return true, match[0]
		}
	}
	return false, ""
}
