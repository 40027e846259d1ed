package service

import (
	"fmt"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

// ApplicationAction names an operation on a scholarship application.
type ApplicationAction string

const (
	ActionSubmit            ApplicationAction = "submit"
	ActionBeginVerification ApplicationAction = "begin_verification"
	ActionVerifyDocument    ApplicationAction = "verify_document"
	ActionMarkVerified      ApplicationAction = "mark_verified"
	ActionMarkIncomplete    ApplicationAction = "mark_incomplete"
	ActionResubmit          ApplicationAction = "resubmit"
	ActionEvaluate          ApplicationAction = "evaluate"
	ActionApprove           ApplicationAction = "approve"
	ActionReject            ApplicationAction = "reject"
	ActionRevoke            ApplicationAction = "revoke"
	ActionEndAward          ApplicationAction = "end_award"
	ActionUpdateDocument    ApplicationAction = "update_document"
	ActionScheduleInterview ApplicationAction = "schedule_interview"
	ActionRecordStipend     ApplicationAction = "record_stipend"
)

// TransitionGuards carries guard results computed outside the machine.
type TransitionGuards struct {
	// DocumentsResolved is true when every required document is uploaded and verified.
	DocumentsResolved bool
}

// SlotEffect is the capacity consequence of committing a transition.
type SlotEffect int

const (
	SlotNone SlotEffect = iota
	SlotReserve
	SlotRelease
)

type actionRule struct {
	// to is the resulting status; empty means the status is unchanged.
	to    models.ApplicationStatus
	roles []models.UserRole
	owner bool
}

var (
	staffVerifiers  = []models.UserRole{models.RoleAdmin, models.RoleVerifier}
	staffEvaluators = []models.UserRole{models.RoleAdmin, models.RoleEvaluator}
	staffApprovers  = []models.UserRole{models.RoleAdmin, models.RoleApprover}
	studentOnly     = []models.UserRole{models.RoleStudent}
)

// applicationTransitions is the single state × action table.
var applicationTransitions = map[models.ApplicationStatus]map[ApplicationAction]actionRule{
	models.ApplicationStatusDraft: {
		ActionSubmit:         {to: models.ApplicationStatusUnderVerification, roles: studentOnly, owner: true},
		ActionUpdateDocument: {roles: studentOnly, owner: true},
	},
	models.ApplicationStatusSubmitted: {
		ActionBeginVerification: {to: models.ApplicationStatusUnderVerification, roles: staffVerifiers},
	},
	models.ApplicationStatusUnderVerification: {
		ActionBeginVerification: {roles: staffVerifiers},
		ActionVerifyDocument:    {roles: staffVerifiers},
		ActionMarkVerified:      {to: models.ApplicationStatusVerified, roles: staffVerifiers},
		ActionMarkIncomplete:    {to: models.ApplicationStatusIncomplete, roles: staffVerifiers},
		ActionReject:            {to: models.ApplicationStatusRejected, roles: staffApprovers},
		ActionUpdateDocument:    {roles: studentOnly, owner: true},
	},
	models.ApplicationStatusIncomplete: {
		ActionResubmit:       {to: models.ApplicationStatusUnderVerification, roles: studentOnly, owner: true},
		ActionUpdateDocument: {roles: studentOnly, owner: true},
	},
	models.ApplicationStatusVerified: {
		ActionMarkIncomplete:    {to: models.ApplicationStatusIncomplete, roles: staffVerifiers},
		ActionEvaluate:          {to: models.ApplicationStatusUnderEvaluation, roles: staffEvaluators},
		ActionReject:            {to: models.ApplicationStatusRejected, roles: staffApprovers},
		ActionScheduleInterview: {roles: staffEvaluators},
	},
	models.ApplicationStatusUnderEvaluation: {
		ActionApprove:           {to: models.ApplicationStatusApproved, roles: staffApprovers},
		ActionReject:            {to: models.ApplicationStatusRejected, roles: staffApprovers},
		ActionScheduleInterview: {roles: staffEvaluators},
	},
	models.ApplicationStatusApproved: {
		ActionRecordStipend: {roles: staffApprovers},
		ActionRevoke:        {to: models.ApplicationStatusRejected, roles: staffApprovers},
		ActionEndAward:      {to: models.ApplicationStatusEnd, roles: staffApprovers},
	},
}

// ApplicationStateMachine validates and resolves application transitions. It is
// pure: the same (status, action, guards) always yields the same result.
type ApplicationStateMachine struct{}

// NewApplicationStateMachine returns the state machine.
func NewApplicationStateMachine() ApplicationStateMachine {
	return ApplicationStateMachine{}
}

// Next resolves the status that results from applying action in from.
func (ApplicationStateMachine) Next(from models.ApplicationStatus, action ApplicationAction, guards TransitionGuards) (models.ApplicationStatus, error) {
	rule, ok := lookupRule(from, action)
	if !ok {
		return from, invalidTransition(action, from)
	}
	to := rule.to
	if to == "" {
		to = from
	}
	if action == ActionMarkVerified && !guards.DocumentsResolved {
		to = models.ApplicationStatusIncomplete
	}
	return to, nil
}

// Check returns the INVALID_STATE_TRANSITION error when action is illegal in from.
func (ApplicationStateMachine) Check(from models.ApplicationStatus, action ApplicationAction) error {
	if _, ok := lookupRule(from, action); !ok {
		return invalidTransition(action, from)
	}
	return nil
}

// Allowed reports whether action is legal in from.
func (ApplicationStateMachine) Allowed(from models.ApplicationStatus, action ApplicationAction) bool {
	_, ok := lookupRule(from, action)
	return ok
}

// Authorize applies the role gate for action. Students may only act on their
// own applications.
func (ApplicationStateMachine) Authorize(actor models.Actor, app *models.ScholarshipApplication, action ApplicationAction) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	rule, ok := lookupRuleAnyState(action)
	if !ok {
		return appErrors.ErrForbidden
	}
	permitted := false
	for _, role := range rule.roles {
		if role == actor.Role {
			permitted = true
			break
		}
	}
	if !permitted {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not %s", actor.Role, action))
	}
	if rule.owner && app != nil && app.StudentID != actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "application belongs to another student")
	}
	return nil
}

// SlotEffectOf reports how committing from → to affects scholarship capacity.
// Only approved consumes a slot, so entering approved reserves and leaving it releases.
func (ApplicationStateMachine) SlotEffectOf(from, to models.ApplicationStatus) SlotEffect {
	switch {
	case from != models.ApplicationStatusApproved && to == models.ApplicationStatusApproved:
		return SlotReserve
	case from == models.ApplicationStatusApproved && to != models.ApplicationStatusApproved:
		return SlotRelease
	}
	return SlotNone
}

// AllowedActions lists the actions legal in status, used by clients to render controls.
func (ApplicationStateMachine) AllowedActions(status models.ApplicationStatus) []ApplicationAction {
	rules := applicationTransitions[status]
	out := make([]ApplicationAction, 0, len(rules))
	for _, action := range actionOrder {
		if _, ok := rules[action]; ok {
			out = append(out, action)
		}
	}
	return out
}

var actionOrder = []ApplicationAction{
	ActionSubmit, ActionBeginVerification, ActionVerifyDocument, ActionMarkVerified, ActionMarkIncomplete,
	ActionResubmit, ActionEvaluate, ActionApprove, ActionReject, ActionRevoke, ActionEndAward,
	ActionUpdateDocument, ActionScheduleInterview, ActionRecordStipend,
}

func lookupRule(from models.ApplicationStatus, action ApplicationAction) (actionRule, bool) {
	rules, ok := applicationTransitions[from]
	if !ok {
		return actionRule{}, false
	}
	rule, ok := rules[action]
	return rule, ok
}

// lookupRuleAnyState finds the role gate for action; roles are the same in
// every state an action appears in.
func lookupRuleAnyState(action ApplicationAction) (actionRule, bool) {
	for _, status := range []models.ApplicationStatus{
		models.ApplicationStatusDraft, models.ApplicationStatusSubmitted, models.ApplicationStatusUnderVerification,
		models.ApplicationStatusIncomplete, models.ApplicationStatusVerified, models.ApplicationStatusUnderEvaluation,
		models.ApplicationStatusApproved,
	} {
		if rule, ok := applicationTransitions[status][action]; ok {
			return rule, true
		}
	}
	return actionRule{}, false
}

// TransitionErrorDetails is attached to INVALID_STATE_TRANSITION errors.
type TransitionErrorDetails struct {
	Action ApplicationAction        `json:"action"`
	Status models.ApplicationStatus `json:"status"`
}

func invalidTransition(action ApplicationAction, from models.ApplicationStatus) error {
	return appErrors.WithDetails(
		appErrors.ErrInvalidStateTransition,
		fmt.Sprintf("cannot %s application in status %s", action, from),
		TransitionErrorDetails{Action: action, Status: from},
	)
}
