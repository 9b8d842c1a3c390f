package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
)

const registrationNotFound = "Registration not found"

type RegistrationHandler struct {
	svc         *service.RegistrationService
	authHandler *auth.AuthHandler
	links       Links
}

func NewRegistrationHandler(svc *service.RegistrationService, authHandler *auth.AuthHandler, links Links) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, authHandler: authHandler, links: links}
}

type RegistrationRequest struct {
	Body struct {
		Name                string `json:"name" doc:"Contact name for the party" minLength:"1" maxLength:"200"`
		Phone               string `json:"phone" doc:"Contact phone number" minLength:"5" maxLength:"32"`
		Email               string `json:"email,omitempty" doc:"Contact email"`
		Under5              int    `json:"under5" doc:"Attendees under 5" minimum:"0"`
		Age5To12            int    `json:"age5to12" doc:"Attendees aged 5 to 12" minimum:"0"`
		Age12Plus           int    `json:"age12plus" doc:"Attendees aged 12 and over" minimum:"0"`
		DietaryRestrictions string `json:"dietary_restrictions,omitempty" doc:"Allergies or dietary notes" maxLength:"1000"`
	}
}

type PublicRegistrationResponse struct {
	Status int
	Body   struct {
		ID            string               `json:"id"`
		Message       string               `json:"message"`
		TotalAmount   int                  `json:"total_amount"`
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*PublicRegistrationResponse, error) {
	reg, err := h.svc.Create(ctx, service.RegistrationInput{
		Name:  input.Body.Name,
		Phone: input.Body.Phone,
		Email: input.Body.Email,
		Party: models.PartyComposition{
			Under5:    input.Body.Under5,
			Age5To12:  input.Body.Age5To12,
			Age12Plus: input.Body.Age12Plus,
		},
		DietaryRestrictions: input.Body.DietaryRestrictions,
	})
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}

	res := &PublicRegistrationResponse{Status: http.StatusCreated}
	res.Body.ID = reg.ID
	res.Body.Message = "Registration received. We will confirm once payment has been received."
	res.Body.TotalAmount = reg.TotalAmount
	res.Body.PaymentStatus = reg.PaymentStatus
	return res, nil
}

type ListRegistrationsInput struct {
	auth.AuthInput
	PaymentStatus string `query:"payment_status" enum:"pending,paid,confirmed" doc:"Only registrations with this payment status"`
	CheckedIn     string `query:"checked_in" enum:"true,false" doc:"Only registrations that are (or are not) checked in"`
	Search        string `query:"q" doc:"Substring of name, email or phone"`
	Sort          string `query:"sort" enum:"created_at,name,total_amount" default:"created_at"`
	Order         string `query:"order" enum:"asc,desc" default:"asc"`
}

type ListRegistrationsOutput struct {
	Body struct {
		Count         int                `json:"count"`
		Registrations []RegistrationView `json:"registrations"`
	}
}

func (h *RegistrationHandler) HandleList(ctx context.Context, input *ListRegistrationsInput) (*ListRegistrationsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	filter := repository.ListFilter{
		PaymentStatus: models.PaymentStatus(input.PaymentStatus),
		Search:        input.Search,
		Sort:          repository.SortField(input.Sort),
		Descending:    input.Order == "desc",
	}
	if input.CheckedIn != "" {
		checkedIn := input.CheckedIn == "true"
		filter.CheckedIn = &checkedIn
	}

	regs, err := h.svc.List(ctx, filter)
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}

	res := &ListRegistrationsOutput{}
	res.Body.Registrations = make([]RegistrationView, 0, len(regs))
	for _, r := range regs {
		res.Body.Registrations = append(res.Body.Registrations, h.links.registrationView(r))
	}
	res.Body.Count = len(regs)
	return res, nil
}

type RegistrationIDInput struct {
	auth.AuthInput
	ID string `path:"id" doc:"Registration ID"`
}

type RegistrationOutput struct {
	Body RegistrationView
}

func (h *RegistrationHandler) HandleGet(ctx context.Context, input *RegistrationIDInput) (*RegistrationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	reg, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}
	return &RegistrationOutput{Body: h.links.registrationView(reg)}, nil
}

type UpdatePaymentInput struct {
	auth.AuthInput
	ID   string `path:"id" doc:"Registration ID"`
	Body struct {
		PaymentStatus models.PaymentStatus `json:"payment_status" enum:"pending,paid,confirmed"`
	}
}

// HandleUpdatePayment changes the payment status. Marking a registration
// paid gives it a check-in code.
func (h *RegistrationHandler) HandleUpdatePayment(ctx context.Context, input *UpdatePaymentInput) (*RegistrationOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	reg, err := h.svc.UpdatePaymentStatus(ctx, input.ID, input.Body.PaymentStatus, admin.Username)
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}
	return &RegistrationOutput{Body: h.links.registrationView(reg)}, nil
}

type UpdateMealDeadlineInput struct {
	auth.AuthInput
	ID   string `path:"id" doc:"Registration ID"`
	Body struct {
		Deadline time.Time `json:"deadline" doc:"New meal selection deadline (RFC 3339)"`
	}
}

func (h *RegistrationHandler) HandleUpdateMealDeadline(ctx context.Context, input *UpdateMealDeadlineInput) (*RegistrationOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	reg, err := h.svc.SetMealDeadline(ctx, input.ID, input.Body.Deadline, admin.Username)
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}
	return &RegistrationOutput{Body: h.links.registrationView(reg)}, nil
}

func (h *RegistrationHandler) HandleDelete(ctx context.Context, input *RegistrationIDInput) (*struct{}, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := h.svc.Delete(ctx, input.ID, admin.Username); err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}
	return nil, nil
}

type HistoryEntry struct {
	Action    models.HistoryAction `json:"action"`
	Actor     string               `json:"actor"`
	Detail    string               `json:"detail,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

type HistoryResponse struct {
	Body []HistoryEntry
}

func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *RegistrationIDInput) (*HistoryResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	entries, err := h.svc.History(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err, "No history for this registration")
	}

	res := &HistoryResponse{Body: make([]HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		res.Body = append(res.Body, HistoryEntry{
			Action:    e.Action,
			Actor:     e.Actor,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return res, nil
}

type StatsOutput struct {
	Body repository.Stats
}

func (h *RegistrationHandler) HandleStats(ctx context.Context, input *auth.AuthInput) (*StatsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, *input); err != nil {
		return nil, err
	}

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return nil, toHumaError(err, registrationNotFound)
	}
	return &StatsOutput{Body: stats}, nil
}
