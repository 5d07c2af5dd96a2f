package stripe

import (
	"net/url"

	"github.com/google/uuid"
)

// CheckoutLinker builds the hosted checkout URL handed to the browser. The
// result is never awaited: completion shows up later through the webhook.
type CheckoutLinker struct {
	BaseURL    string
	SuccessURL string
	CancelURL  string
}

func (c CheckoutLinker) Link(tenantID uuid.UUID, email string) string {
	return CheckoutLink(c.BaseURL, tenantID, email, c.SuccessURL, c.CancelURL)
}

func CheckoutLink(base string, tenantID uuid.UUID, email, successURL, cancelURL string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}

	q := u.Query()
	q.Set("client_reference_id", tenantID.String())
	if email != "" {
		q.Set("prefilled_email", email)
	}
	if successURL != "" {
		q.Set("success_url", successURL)
	}
	if cancelURL != "" {
		q.Set("cancel_url", cancelURL)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
