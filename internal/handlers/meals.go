package handlers

import (
	"context"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
)

const mealNotFound = "Invalid meal selection link"

type MealHandler struct {
	svc *service.MealService
}

func NewMealHandler(svc *service.MealService) *MealHandler {
	return &MealHandler{svc: svc}
}

type MealTokenInput struct {
	Token string `path:"token" doc:"Meal selection token from the link"`
}

type MealContextOutput struct {
	Body MealContextView
}

func (h *MealHandler) HandleVerify(ctx context.Context, input *MealTokenInput) (*MealContextOutput, error) {
	reg, err := h.svc.Verify(ctx, input.Token)
	if err != nil {
		return nil, toHumaError(err, mealNotFound)
	}
	return &MealContextOutput{Body: mealContextView(reg)}, nil
}

type MealSubmitRequest struct {
	Token string `path:"token" doc:"Meal selection token from the link"`
	Body  struct {
		Selections          []models.MealSelection `json:"selections" doc:"One entry per attendee"`
		DietaryRestrictions string                 `json:"dietary_restrictions,omitempty" maxLength:"1000"`
	}
}

type MealSubmitResponse struct {
	Body struct {
		Status  string          `json:"status" enum:"submitted,already_submitted"`
		Message string          `json:"message"`
		Meals   MealContextView `json:"meals"`
	}
}

func (h *MealHandler) HandleSubmit(ctx context.Context, input *MealSubmitRequest) (*MealSubmitResponse, error) {
	res, err := h.svc.Submit(ctx, input.Token, service.MealSubmission{
		Selections:          input.Body.Selections,
		DietaryRestrictions: input.Body.DietaryRestrictions,
	})
	if err != nil {
		return nil, toHumaError(err, mealNotFound)
	}

	out := &MealSubmitResponse{}
	out.Body.Meals = mealContextView(res.Registration)
	if res.AlreadySubmitted {
		out.Body.Status = "already_submitted"
		out.Body.Message = "Meal selections were already submitted. Contact the organisers to change them."
	} else {
		out.Body.Status = "submitted"
		out.Body.Message = "Thank you! Your meal selections have been saved."
	}
	return out, nil
}
