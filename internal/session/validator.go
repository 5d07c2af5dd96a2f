package session

import (
	"context"
	"time"

	"crm-app/internal/logger"
	"crm-app/internal/metrics"
	"crm-app/internal/notify"

	"github.com/microcosm-cc/bluemonday"
)

const defaultDenialMessage = "Access denied: no profile is linked to this account."

type SignOuter interface {
	SignOut(ctx context.Context, s Session) error
}

type Outcome string

const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeInactive  Outcome = "inactive"
	OutcomeDenied    Outcome = "denied"
	OutcomeError     Outcome = "error"
	OutcomeDiscarded Outcome = "discarded"
)

type Report struct {
	Outcome   Outcome           `json:"outcome"`
	Result    *ValidationResult `json:"result,omitempty"`
	SignedOut bool              `json:"signed_out"`
}

// Validator runs once when a session becomes available. It only ever signs a
// user out when no profile exists; inactive profiles are left to the guards.
type Validator struct {
	checker  AccessChecker
	signOut  SignOuter
	notifier notify.Publisher
	metrics  metrics.AccessMetrics
	log      logger.Logger
	policy   *bluemonday.Policy
	now      func() time.Time
}

func NewValidator(checker AccessChecker, signOut SignOuter, notifier notify.Publisher, m metrics.AccessMetrics, log logger.Logger) *Validator {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Validator{
		checker:  checker,
		signOut:  signOut,
		notifier: notifier,
		metrics:  m,
		log:      log.Component("session-validator"),
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

func (v *Validator) OnSessionStart(ctx context.Context, s Session) Report {
	res, err := v.checker.ValidateUserAccess(ctx, s.UserID)
	if ctx.Err() != nil {
		// caller went away; nothing to apply the result to
		v.metrics.IncSessionValidation(string(OutcomeDiscarded))
		return Report{Outcome: OutcomeDiscarded}
	}
	if err != nil {
		// fail open: the guards still enforce billing state
		v.log.Warn("session validation failed", map[string]interface{}{
			"userId": s.UserID.String(),
			"error":  err.Error(),
		})
		v.metrics.IncSessionValidation(string(OutcomeError))
		return Report{Outcome: OutcomeError}
	}

	if res.AllowAccess {
		outcome := OutcomeAllowed
		if !res.Valid {
			outcome = OutcomeInactive
		}
		v.metrics.IncSessionValidation(string(outcome))
		return Report{Outcome: outcome, Result: &res}
	}

	msg := v.policy.Sanitize(res.Message)
	if msg == "" {
		msg = defaultDenialMessage
	}
	res.Message = msg

	v.notifier.Publish(notify.Notification{
		Kind:    notify.KindSessionTerminated,
		UserID:  s.UserID,
		Message: msg,
		At:      v.now().UTC(),
	})

	report := Report{Outcome: OutcomeDenied, Result: &res}
	if err := v.signOut.SignOut(ctx, s); err != nil {
		v.log.Error("forced sign-out failed", map[string]interface{}{
			"userId": s.UserID.String(),
			"error":  err.Error(),
		})
	} else {
		report.SignedOut = true
	}

	v.log.Info("session terminated, no profile", map[string]interface{}{
		"userId": s.UserID.String(),
	})
	v.metrics.IncSessionValidation(string(OutcomeDenied))
	return report
}
