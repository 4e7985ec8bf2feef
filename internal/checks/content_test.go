package checks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dealerwatch/internal/models"
)

var checkNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const healthyPage = `<html><body>
<a href="/inventory/new">New Vehicles</a>
<form action="/contact" method="post"><input name="email"></form>
<p>Call us: (555) 123-4567</p>
</body></html>`

func TestCheckContentHealthyPage(t *testing.T) {
	c := CheckContent(healthyPage, checkNow)
	assert.True(t, c.FormsWorking)
	assert.True(t, c.PhoneNumbersValid)
	assert.Equal(t, 100, c.InventoryCount)
	assert.False(t, c.ExpiredOfferFound)
	assert.Empty(t, c.Issues)
}

func TestCheckContentLenientContactSignals(t *testing.T) {
	// No form, but a tel: link alone satisfies the contact requirement.
	c := CheckContent(`<html><body><a href="tel:+15551234567">Call</a><a href="/vehicles">Stock</a></body></html>`, checkNow)
	assert.True(t, c.FormsWorking)

	// A "Contact Us" link alone also satisfies it.
	c = CheckContent(`<html><body><a href="/about/contact-us">Contact Us</a><a href="/inventory">Inventory</a></body></html>`, checkNow)
	assert.True(t, c.FormsWorking)
}

func TestCheckContentNoContactMechanismIsRed(t *testing.T) {
	c := CheckContent(`<html><body><p>Just text.</p><a href="/inventory">Cars</a></body></html>`, checkNow)
	assert.False(t, c.FormsWorking)

	var types []string
	for _, issue := range c.Issues {
		types = append(types, issue.Type)
		if issue.Type == "forms_not_working" {
			assert.Equal(t, models.StatusRed, issue.Severity)
		}
	}
	assert.Contains(t, types, "forms_not_working")
}

func TestCheckContentMissingInventory(t *testing.T) {
	c := CheckContent(`<html><body><form></form><a href="/service">Service</a></body></html>`, checkNow)
	assert.Equal(t, 0, c.InventoryCount)

	var types []string
	for _, issue := range c.Issues {
		types = append(types, issue.Type)
	}
	assert.Contains(t, types, "no_inventory")
}

func TestCheckContentExpiredOffer(t *testing.T) {
	page := `<html><body><form></form><a href="/inventory">Cars</a>
	<p>Spring Sale! 0% APR — offer expires 01/10/2026. Call (555) 123-4567</p></body></html>`
	c := CheckContent(page, checkNow)
	assert.True(t, c.ExpiredOfferFound)

	// A future offer is fine.
	future := `<html><body><form></form><a href="/inventory">Cars</a>
	<p>Offer valid through 12/31/2026. Call (555) 123-4567</p></body></html>`
	c = CheckContent(future, checkNow)
	assert.False(t, c.ExpiredOfferFound)
}

func TestCheckContentPhoneFormats(t *testing.T) {
	for _, phone := range []string{
		"(555) 123-4567",
		"555-123-4567",
		"555.123.4567",
		"+1 555 123 4567",
	} {
		page := `<html><body><form></form><a href="/inventory">Cars</a><p>` + phone + `</p></body></html>`
		c := CheckContent(page, checkNow)
		assert.True(t, c.PhoneNumbersValid, phone)
	}
}
