package models

import "net/http"

// DomainError carries a stable machine code plus the HTTP status the
// problem-details envelope should use. Kinds map 1:1 to the API error codes.
type DomainError struct {
	Code    string
	Status  int
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func newDomainError(code string, status int, message string) *DomainError {
	return &DomainError{Code: code, Status: status, Message: message}
}

var (
	ErrNotFound       = newDomainError("not_found", http.StatusNotFound, "record not found")
	ErrForbidden      = newDomainError("forbidden", http.StatusForbidden, "forbidden")
	ErrAuthentication = newDomainError("authentication_required", http.StatusUnauthorized, "authentication required")

	// Tenancy. Cross-tenant access degrades to not_found at the surface so
	// existence is never disclosed; the cross_tenant code is for logs only.
	ErrCrossTenantAccess  = newDomainError("cross_tenant_access", http.StatusNotFound, "record not found")
	ErrNotAMember         = newDomainError("not_a_member", http.StatusForbidden, "not a member of this workspace")
	ErrWorkspaceSuspended = newDomainError("workspace_suspended", http.StatusForbidden, "workspace is suspended")
	ErrUnknownWorkspace   = newDomainError("unknown_workspace", http.StatusNotFound, "workspace not found")

	// Domain.
	ErrInsufficientStock   = newDomainError("insufficient_stock", http.StatusUnprocessableEntity, "insufficient stock")
	ErrInvalidQuantity     = newDomainError("invalid_quantity", http.StatusUnprocessableEntity, "quantity is not valid for this entry type")
	ErrWorkflowTerminal    = newDomainError("workflow_terminal", http.StatusConflict, "order is at the final status")
	ErrRevertNotAllowed    = newDomainError("revert_not_allowed", http.StatusConflict, "revert to that status is not allowed")
	ErrPlanLimitReached    = newDomainError("plan_limit_reached", http.StatusUnprocessableEntity, "subscription plan limit reached")
	ErrDuplicateInvitation = newDomainError("duplicate_invitation", http.StatusConflict, "an active invitation already exists for this email")
	ErrInvitationExpired   = newDomainError("invitation_expired", http.StatusGone, "invitation has expired")
	ErrAlreadyMember       = newDomainError("already_member", http.StatusConflict, "user is already a member of this workspace")
	ErrSlugTaken           = newDomainError("slug_taken", http.StatusConflict, "workspace slug is taken")
	ErrWorkflowInUse       = newDomainError("workflow_in_use", http.StatusConflict, "a live order sits on a status being removed")
	ErrLedgerDrift         = newDomainError("ledger_drift", http.StatusConflict, "snapshot does not match ledger")
	ErrImmutableLedger     = newDomainError("immutable_ledger", http.StatusConflict, "ledger rows cannot be changed")
	ErrDeliveryExceeded    = newDomainError("delivery_exceeded", http.StatusUnprocessableEntity, "delivered quantity exceeds ordered quantity")
	ErrOverpayment         = newDomainError("overpayment", http.StatusUnprocessableEntity, "payments exceed invoice amount")

	// Integrity.
	ErrConsistency = newDomainError("consistency_error", http.StatusInternalServerError, "could not commit changes")
	ErrConflict    = newDomainError("conflict", http.StatusConflict, "conflicting update")
)
