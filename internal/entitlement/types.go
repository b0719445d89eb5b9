package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// PlanType distinguishes the two sides of the marketplace.
type PlanType string

const (
	PlanTypeHustler  PlanType = "hustler"  // service providers, unlimited applications on pro
	PlanTypeEmployer PlanType = "employer" // gig posters, unlimited posts on pro
)

// Status is the subscription lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusInactive  Status = "inactive"
)

// UsageKind identifies which monthly counter a tracked action belongs to.
type UsageKind string

const (
	UsagePost        UsageKind = "post"
	UsageApplication UsageKind = "application"
)

// Free tier limits. Unlimited is encoded as -1 so limits survive JSON and
// SQL round trips.
const (
	FreeApplicationLimit int64 = 5
	FreePostLimit        int64 = 1
	Unlimited            int64 = -1
)

// Plan is immutable reference data describing a subscription tier.
type Plan struct {
	ID            uuid.UUID
	Slug          string
	Type          PlanType
	Name          string
	PriceZAR      int64
	Features      []string
	StripePriceID string
	IsActive      bool
}

// Subscription links a user to a plan. At most one row exists per user;
// status transitions are driven exclusively by payment provider events.
type Subscription struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	PlanID               uuid.UUID
	Status               Status
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Boost is a purchased, time-bounded visibility promotion. Rows are never
// mutated after insert; a boost is in effect while IsActive and EndsAt is in
// the future.
type Boost struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	HustleID        *uuid.UUID // nil for profile-level boosts
	BoostType       string
	StripePaymentID string
	PriceZAR        int64
	StartsAt        time.Time
	EndsAt          time.Time
	IsActive        bool
}

// EffectiveAt reports whether the boost is in effect at the given instant.
func (b Boost) EffectiveAt(t time.Time) bool {
	return b.IsActive && b.EndsAt.After(t)
}

// UsageRecord holds the per-user counters for one calendar month. Counters
// only grow within a period; a missing record reads as all zeroes.
type UsageRecord struct {
	UserID            uuid.UUID
	Period            string // YYYY-MM, UTC
	ApplicationsCount int64
	PostsCount        int64
	UpdatedAt         time.Time
}

// Usage is the counter pair exposed to clients.
type Usage struct {
	ApplicationsCount int64 `json:"applications_count"`
	PostsCount        int64 `json:"posts_count"`
}

// Limits are the caller's hard monthly limits; -1 means unlimited.
type Limits struct {
	Applications int64 `json:"applications"`
	Posts        int64 `json:"posts"`
}

// PlanInfo is the plan summary embedded in entitlement responses.
type PlanInfo struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Type     PlanType `json:"type"`
	Features []string `json:"features"`
}

// SubscriptionInfo is the subscription summary embedded in entitlement
// responses.
type SubscriptionInfo struct {
	ID                 uuid.UUID `json:"id"`
	Status             Status    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	Plan               PlanInfo  `json:"plan"`
}

// BoostInfo is a currently-effective boost as exposed to clients.
type BoostInfo struct {
	ID        uuid.UUID  `json:"id"`
	BoostType string     `json:"boost_type"`
	HustleID  *uuid.UUID `json:"hustle_id"`
	EndsAt    time.Time  `json:"ends_at"`
}

// EntitlementStatus is the full entitlement decision for one caller.
type EntitlementStatus struct {
	IsPro        bool              `json:"isPro"`
	PlanType     *PlanType         `json:"planType"`
	Subscription *SubscriptionInfo `json:"subscription"`
	Usage        Usage             `json:"usage"`
	Limits       Limits            `json:"limits"`
	Boosts       []BoostInfo       `json:"boosts"`
	CanApply     bool              `json:"canApply"`
	CanPost      bool              `json:"canPost"`
}

// FreeStatus returns the fixed free-tier default: the status of an
// unauthenticated visitor, identical to that of a signed-in free user with
// no usage this month and no boosts.
func FreeStatus() *EntitlementStatus {
	return &EntitlementStatus{
		IsPro:        false,
		PlanType:     nil,
		Subscription: nil,
		Usage:        Usage{},
		Limits:       Limits{Applications: FreeApplicationLimit, Posts: FreePostLimit},
		Boosts:       []BoostInfo{},
		CanApply:     true,
		CanPost:      true,
	}
}
