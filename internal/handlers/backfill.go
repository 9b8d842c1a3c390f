package handlers

import (
	"context"

	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
)

type BackfillHandler struct {
	svc         *service.BackfillService
	authHandler *auth.AuthHandler
}

func NewBackfillHandler(svc *service.BackfillService, authHandler *auth.AuthHandler) *BackfillHandler {
	return &BackfillHandler{svc: svc, authHandler: authHandler}
}

type BackfillInput struct {
	auth.AuthInput
	Kind string `path:"kind" enum:"checkin-codes,meal-tokens" doc:"Which token to backfill"`
}

type BackfillStatusOutput struct {
	Body struct {
		Kind    string `json:"kind"`
		Needing int64  `json:"needing"`
		Have    int64  `json:"have"`
	}
}

func (h *BackfillHandler) HandleStatus(ctx context.Context, input *BackfillInput) (*BackfillStatusOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	counts, err := h.svc.Status(ctx, token.Kind(input.Kind))
	if err != nil {
		return nil, toHumaError(err, "Unknown token kind")
	}

	out := &BackfillStatusOutput{}
	out.Body.Kind = input.Kind
	out.Body.Needing = counts.Needing
	out.Body.Have = counts.Have
	return out, nil
}

type BackfillRunOutput struct {
	Body service.BackfillResult
}

func (h *BackfillHandler) HandleRun(ctx context.Context, input *BackfillInput) (*BackfillRunOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.Run(ctx, token.Kind(input.Kind), admin.Username)
	if err != nil {
		return nil, toHumaError(err, "Unknown token kind")
	}
	return &BackfillRunOutput{Body: res}, nil
}
