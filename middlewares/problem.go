package middlewares

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Problem is the RFC 7807 error envelope every failed request returns.
type Problem struct {
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Status    int          `json:"status"`
	Detail    string       `json:"detail,omitempty"`
	Instance  string       `json:"instance,omitempty"`
	RequestId string       `json:"request_id,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// RenderProblem translates any error into the problem envelope and
// writes it. Domain errors carry their own code and status; validator
// errors become field-level details; everything else is internal_error.
func RenderProblem(c *gin.Context, err error) {
	requestId, _ := utils.GetRequestIdFromContext(c.Request.Context())

	problem := Problem{
		Type:      "about:blank",
		Title:     "internal_error",
		Status:    http.StatusInternalServerError,
		Instance:  c.Request.URL.Path,
		RequestId: requestId,
	}

	switch e := err.(type) {
	case *models.DomainError:
		// cross-tenant reads must look exactly like a missing record
		if e == models.ErrCrossTenantAccess {
			e = models.ErrNotFound
		}
		problem.Title = e.Code
		problem.Status = e.Status
		problem.Detail = e.Message
	case validator.ValidationErrors:
		problem.Title = "validation_error"
		problem.Status = http.StatusUnprocessableEntity
		for field, tag := range utils.ProcessValidationErrors(e) {
			problem.Errors = append(problem.Errors, FieldError{
				Field:   field,
				Message: "failed on " + tag,
				Code:    tag,
			})
		}
	default:
		problem.Detail = "an unexpected error occurred"
	}

	c.JSON(problem.Status, problem)
}

// AbortProblem renders the envelope and stops the handler chain.
func AbortProblem(c *gin.Context, err error) {
	RenderProblem(c, err)
	c.Abort()
}
