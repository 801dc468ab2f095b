package models

import "time"

// RiskLevel is the aggregate safety classification cached on a Ticket. It is
// always re-derivable from the ticket's utility responses plus expiry status
// (see DeriveRiskLevel); it is never an independently asserted fact.
type RiskLevel string

const (
	RiskClear   RiskLevel = "CLEAR"
	RiskCaution RiskLevel = "CAUTION"
	RiskWarning RiskLevel = "WARNING"
	RiskStop    RiskLevel = "STOP"
)

// Ticket is a utility-locate request covering a dig site.
type Ticket struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`

	Number string `json:"number,omitempty"`
	Status string `json:"status,omitempty"`

	// Dig-site location. Nil when the ticket has no geocoded location; such
	// tickets are excluded from proximity queries.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Address string `json:"address,omitempty"`
	County  string `json:"county,omitempty"`

	LegalDigDate *time.Time `json:"legalDigDate,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`

	WorkDescription string `json:"workDescription,omitempty"`

	CanDig       bool      `json:"canDig"`
	CanDigReason string    `json:"canDigReason,omitempty"`
	RiskLevel    RiskLevel `json:"riskLevel,omitempty"`

	ProjectIDs []string `json:"projectIds,omitempty"`
}

// Expired reports whether the ticket's locate coverage has lapsed at now.
func (t *Ticket) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// ExpiringWithin reports whether the ticket expires inside the given window.
func (t *Ticket) ExpiringWithin(now time.Time, window time.Duration) bool {
	if t.ExpiresAt == nil || t.Expired(now) {
		return false
	}
	return t.ExpiresAt.Sub(now) <= window
}

// ResponseStatus is the state of one utility's answer to a locate request.
type ResponseStatus string

const (
	ResponsePending        ResponseStatus = "PENDING"
	ResponseClear          ResponseStatus = "CLEAR"
	ResponseMarked         ResponseStatus = "MARKED"
	ResponseNoConflict     ResponseStatus = "NO_CONFLICT"
	ResponseNotApplicable  ResponseStatus = "NOT_APPLICABLE"
	ResponseVerifiedOnSite ResponseStatus = "VERIFIED_ON_SITE"
	ResponseUnverified     ResponseStatus = "UNVERIFIED"
	ResponseConflict       ResponseStatus = "CONFLICT"
)

// UtilityResponse is one utility operator's answer on a locate ticket.
// Every response belongs to exactly one ticket.
type UtilityResponse struct {
	ServerID  string `json:"serverId,omitempty"`
	OfflineID string `json:"offlineId" validate:"required"`
	TicketID  string `json:"ticketId" validate:"required"`

	UtilityName string `json:"utilityName,omitempty"`
	UtilityCode string `json:"utilityCode,omitempty"`
	UtilityType string `json:"utilityType,omitempty"`

	ResponseStatus ResponseStatus `json:"responseStatus"`

	VerifiedOnSite bool       `json:"verifiedOnSite"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`

	HasConflict    bool   `json:"hasConflict"`
	ConflictReason string `json:"conflictReason,omitempty"`

	ResponseDeadline *time.Time `json:"responseDeadline,omitempty"`
}

// DeriveRiskLevel computes a ticket's aggregate risk from its utility
// responses and expiry status. The mapping is deliberately conservative:
// an unanswered or unverifiable locate is never treated as safe.
//
//   - expired ticket, or any conflict            -> STOP
//   - any PENDING or UNVERIFIED response         -> WARNING
//   - no responses at all                        -> WARNING
//   - responses present, some MARKED/VERIFIED    -> CAUTION
//   - all CLEAR / NO_CONFLICT / NOT_APPLICABLE   -> CLEAR
func DeriveRiskLevel(responses []UtilityResponse, expired bool) RiskLevel {
	if expired {
		return RiskStop
	}
	if len(responses) == 0 {
		return RiskWarning
	}

	level := RiskClear
	for _, r := range responses {
		switch {
		case r.HasConflict || r.ResponseStatus == ResponseConflict:
			return RiskStop
		case r.ResponseStatus == ResponsePending || r.ResponseStatus == ResponseUnverified:
			level = RiskWarning
		case r.ResponseStatus == ResponseMarked || r.ResponseStatus == ResponseVerifiedOnSite:
			if level == RiskClear {
				level = RiskCaution
			}
		}
	}
	return level
}
