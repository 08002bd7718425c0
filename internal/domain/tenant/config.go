package tenant

import "time"

// Features toggles optional shop modules.
type Features struct {
	Ecommerce     bool `json:"ecommerce"`
	Tickets       bool `json:"tickets"`
	Marketing     bool `json:"marketing"`
	Appointments  bool `json:"appointments"`
	MaxAdminUsers int  `json:"maxAdminUsers"`
}

// DefaultFeatures is applied when a tenant has no stored feature flags.
func DefaultFeatures() Features {
	return Features{Ecommerce: true, Tickets: true, Marketing: true, Appointments: true, MaxAdminUsers: 1}
}

// Config is the per-tenant shop configuration.
type Config struct {
	TenantID          string    `json:"tenantId"`
	ShopName          string    `json:"shopName"`
	LogoURL           string    `json:"logoUrl,omitempty"`
	PrimaryColor      string    `json:"primaryColor"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	WhatsAppNumber    string    `json:"whatsappNumber,omitempty"`
	Locale            string    `json:"locale"`
	Currency          string    `json:"currency"`
	CurrencySymbol    string    `json:"currencySymbol"`
	Timezone          string    `json:"timezone"`
	ClosedDays        []int     `json:"closedDays"`
	TimeSlots         []string  `json:"timeSlots"`
	CompanyName       string    `json:"companyName,omitempty"`
	VATNumber         string    `json:"vatNumber,omitempty"`
	InvoicePrefix     string    `json:"invoicePrefix"`
	GoogleAnalyticsID string    `json:"googleAnalyticsId,omitempty"`
	CookiebotID       string    `json:"cookiebotId,omitempty"`
	SEOTitle          string    `json:"seoTitle,omitempty"`
	SEODescription    string    `json:"seoDescription,omitempty"`
	Features          Features  `json:"features"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// DefaultConfig returns the configuration a new shop starts with.
func DefaultConfig(shopName string) Config {
	return Config{
		ShopName:       shopName,
		PrimaryColor:   "#7c3aed",
		Locale:         "nl",
		Currency:       "EUR",
		CurrencySymbol: "€",
		Timezone:       "Europe/Brussels",
		ClosedDays:     []int{0},
		TimeSlots:      []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"},
		InvoicePrefix:  "INV",
		Features:       DefaultFeatures(),
	}
}

// PublicConfig is the storefront-safe view of a tenant's configuration.
type PublicConfig struct {
	TenantID     string   `json:"tenantId"`
	Slug         string   `json:"slug"`
	Branding     Branding `json:"branding"`
	Contact      Contact  `json:"contact"`
	Locale       Locale   `json:"locale"`
	Business     Business `json:"business"`
	Integrations struct {
		GoogleAnalyticsID string `json:"googleAnalyticsId,omitempty"`
		CookiebotID       string `json:"cookiebotId,omitempty"`
	} `json:"integrations"`
	SEO struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
	} `json:"seo"`
	Features Features `json:"features"`
}

// Branding groups visual identity settings.
type Branding struct {
	ShopName     string `json:"shopName"`
	LogoURL      string `json:"logoUrl,omitempty"`
	PrimaryColor string `json:"primaryColor"`
}

// Contact groups public contact channels.
type Contact struct {
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty"`
}

// Locale groups language, currency and time settings.
type Locale struct {
	Language       string `json:"language"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currencySymbol"`
	Timezone       string `json:"timezone"`
}

// Business groups opening and invoicing settings.
type Business struct {
	CompanyName   string   `json:"companyName,omitempty"`
	VATNumber     string   `json:"vatNumber,omitempty"`
	InvoicePrefix string   `json:"invoicePrefix"`
	ClosedDays    []int    `json:"closedDays"`
	TimeSlots     []string `json:"timeSlots"`
}

// Public builds the storefront view of the resolved tenant.
func (tc Context) Public() PublicConfig {
	c := tc.Config
	p := PublicConfig{
		TenantID: tc.TenantID,
		Slug:     tc.Slug,
		Branding: Branding{ShopName: c.ShopName, LogoURL: c.LogoURL, PrimaryColor: c.PrimaryColor},
		Contact:  Contact{Email: c.Email, Phone: c.Phone, WhatsAppNumber: c.WhatsAppNumber},
		Locale:   Locale{Language: c.Locale, Currency: c.Currency, CurrencySymbol: c.CurrencySymbol, Timezone: c.Timezone},
		Business: Business{
			CompanyName:   c.CompanyName,
			VATNumber:     c.VATNumber,
			InvoicePrefix: c.InvoicePrefix,
			ClosedDays:    c.ClosedDays,
			TimeSlots:     c.TimeSlots,
		},
		Features: tc.Features,
	}
	if p.Branding.ShopName == "" {
		p.Branding.ShopName = tc.Name
	}
	p.Integrations.GoogleAnalyticsID = c.GoogleAnalyticsID
	p.Integrations.CookiebotID = c.CookiebotID
	p.SEO.Title = c.SEOTitle
	p.SEO.Description = c.SEODescription
	return p
}
