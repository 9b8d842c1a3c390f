package handlers

import (
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
	"go.uber.org/zap"
)

// toHumaError maps service errors onto HTTP errors. notFoundMsg is what the
// caller sees when the code, token or ID resolves to nothing.
func toHumaError(err error, notFoundMsg string) error {
	var (
		deadline   *service.DeadlineError
		pending    *service.PaymentPendingError
		incomplete *service.IncompleteSelectionsError
	)

	switch {
	case errors.As(err, &deadline):
		return huma.NewError(410, "Meal selection deadline has passed", &huma.ErrorDetail{
			Location: "deadline",
			Message:  "selections closed at " + deadline.Deadline.Format("2006-01-02 15:04 MST"),
			Value:    deadline.Deadline,
		})
	case errors.As(err, &pending):
		return huma.Error403Forbidden(fmt.Sprintf("Payment for %s is %s. Check-in requires a paid registration.", pending.Name, pending.Status))
	case errors.As(err, &incomplete):
		return huma.Error400BadRequest("Incomplete selections",
			&huma.ErrorDetail{Location: "body.selections.under5", Message: fmt.Sprintf("expected %d, got %d", incomplete.WantUnder5, incomplete.GotUnder5), Value: incomplete.GotUnder5},
			&huma.ErrorDetail{Location: "body.selections.over5", Message: fmt.Sprintf("expected %d, got %d", incomplete.WantOver5, incomplete.GotOver5), Value: incomplete.GotOver5},
		)
	case errors.Is(err, service.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, service.ErrNotFound):
		return huma.Error404NotFound(notFoundMsg)
	}

	zap.L().Error("request failed", zap.Error(err))
	return huma.Error500InternalServerError("Internal server error")
}
