package handlers

import (
	"context"
	"fmt"

	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
)

const checkInNotFound = "Invalid check-in code"

type CheckInHandler struct {
	svc         *service.CheckInService
	authHandler *auth.AuthHandler
}

func NewCheckInHandler(svc *service.CheckInService, authHandler *auth.AuthHandler) *CheckInHandler {
	return &CheckInHandler{svc: svc, authHandler: authHandler}
}

type CheckInCodeInput struct {
	Code string `path:"code" doc:"Check-in code from the QR code"`
}

type CheckInLookupOutput struct {
	Body CheckInView
}

func (h *CheckInHandler) HandleLookup(ctx context.Context, input *CheckInCodeInput) (*CheckInLookupOutput, error) {
	reg, err := h.svc.Lookup(ctx, input.Code)
	if err != nil {
		return nil, toHumaError(err, checkInNotFound)
	}
	return &CheckInLookupOutput{Body: checkInView(reg)}, nil
}

type CheckInRequest struct {
	Code string `path:"code" doc:"Check-in code from the QR code"`
	Body *struct {
		Operator string `json:"operator,omitempty" doc:"Name of the person scanning" maxLength:"100"`
	}
}

type CheckInResponse struct {
	Body struct {
		Status       service.CheckInOutcome `json:"status" enum:"checked_in,already_checked_in"`
		Message      string                 `json:"message"`
		Registration CheckInView            `json:"registration"`
	}
}

// HandleCheckIn admits a party. A repeat scan is not an error: it answers
// with the original time and operator so door staff can tell what happened.
func (h *CheckInHandler) HandleCheckIn(ctx context.Context, input *CheckInRequest) (*CheckInResponse, error) {
	operator := ""
	if input.Body != nil {
		operator = input.Body.Operator
	}

	res, err := h.svc.CheckIn(ctx, input.Code, operator)
	if err != nil {
		return nil, toHumaError(err, checkInNotFound)
	}

	reg := res.Registration
	out := &CheckInResponse{}
	out.Body.Status = res.Outcome
	out.Body.Registration = checkInView(reg)
	switch res.Outcome {
	case service.OutcomeAlreadyCheckedIn:
		at := ""
		if reg.CheckInTime != nil {
			at = reg.CheckInTime.Format("15:04 on 2 Jan")
		}
		out.Body.Message = fmt.Sprintf("%s was already checked in at %s by %s", reg.Name, at, reg.CheckInBy)
	default:
		out.Body.Message = fmt.Sprintf("Welcome %s! %d guests checked in.", reg.Name, reg.Headcount())
	}
	return out, nil
}

type UndoCheckInInput struct {
	auth.AuthInput
	Code string `path:"code" doc:"Check-in code"`
}

func (h *CheckInHandler) HandleUndo(ctx context.Context, input *UndoCheckInInput) (*CheckInLookupOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	reg, err := h.svc.Undo(ctx, input.Code, admin.Username)
	if err != nil {
		return nil, toHumaError(err, checkInNotFound)
	}
	return &CheckInLookupOutput{Body: checkInView(reg)}, nil
}
