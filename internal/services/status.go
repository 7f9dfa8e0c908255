package services

import (
	"strings"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// ChallengeStatus is a user's position in a challenge's lifecycle.
type ChallengeStatus string

const (
	StatusNone      ChallengeStatus = "none"
	StatusActive    ChallengeStatus = "active"
	StatusPending   ChallengeStatus = "pending"
	StatusCompleted ChallengeStatus = "completed"
)

// statusOf resolves the bucket of challengeID for u. Precedence is
// completed > pending > active > none.
func statusOf(u *domain.User, challengeID string) ChallengeStatus {
	switch {
	case u.Completed.Has(challengeID):
		return StatusCompleted
	case u.Pending.Has(challengeID):
		return StatusPending
	case u.Active.Has(challengeID):
		return StatusActive
	}
	return StatusNone
}

// StatusView is the status of a challenge for the session user plus the most
// recent proof they submitted, if any.
type StatusView struct {
	Status ChallengeStatus    `json:"status"`
	Proof  *domain.Completion `json:"proof,omitempty"`
}

// ProofData describes a proof submission.
type ProofData struct {
	MediaURL    string           `json:"proofUrl" validate:"required,max=2048"`
	MediaType   domain.MediaType `json:"proofType" validate:"omitempty,oneof=image video"`
	Description string           `json:"description" validate:"max=2000"`
}

// StatusAction is one of Accept, SubmitProof, Approve or Reject. The set is
// closed: only this package can add variants.
type StatusAction interface {
	statusAction() string
}

// Accept starts the challenge for the acting user.
type Accept struct{}

// SubmitProof files a proof for review.
type SubmitProof struct {
	Proof ProofData
}

// Approve accepts SubmitterID's pending proof. An empty SubmitterID means the
// acting user.
type Approve struct {
	SubmitterID string
}

// Reject declines SubmitterID's pending proof. An empty SubmitterID means the
// acting user.
type Reject struct {
	SubmitterID string
}

func (Accept) statusAction() string      { return "accept" }
func (SubmitProof) statusAction() string { return "submit_proof" }
func (Approve) statusAction() string     { return "approve" }
func (Reject) statusAction() string      { return "reject" }

// ActionName returns the wire name of a.
func ActionName(a StatusAction) string {
	if a == nil {
		return ""
	}
	return a.statusAction()
}

// ParseStatusAction maps a wire action name onto its variant.
func ParseStatusAction(name string, proof *ProofData, submitterID string) (StatusAction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "accept":
		return Accept{}, nil
	case "submit_proof":
		if proof == nil {
			return nil, domain.NewError(domain.KindInvalid, "submit_proof requires proofData")
		}
		return SubmitProof{Proof: *proof}, nil
	case "approve":
		return Approve{SubmitterID: submitterID}, nil
	case "reject":
		return Reject{SubmitterID: submitterID}, nil
	}
	return nil, ErrUnknownAction
}
