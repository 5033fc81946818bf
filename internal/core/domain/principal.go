package domain

type PrincipalID string

// AnonymousPrincipal is the principal used for unauthenticated requests.
// Free content must remain reachable for it.
const AnonymousPrincipal PrincipalID = "anonymous"

func (p PrincipalID) IsAnonymous() bool {
	return p == "" || p == AnonymousPrincipal
}

type CreatorID string

// OwnerSummary is what a paywall response may reveal about a creator:
// enough to render a "subscribe to unlock" prompt, nothing more.
type OwnerSummary struct {
	ID           CreatorID `json:"id"`
	DisplayName  string    `json:"display_name"`
	MonthlyPrice int       `json:"monthly_price_cents"`
	TrialDays    int       `json:"trial_days,omitempty"`
}
