package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
)

// Links builds the attendee-facing URLs that get turned into QR codes and
// messages.
type Links struct {
	base string
}

func NewLinks(publicURL string) Links {
	return Links{base: strings.TrimRight(publicURL, "/")}
}

func (l Links) CheckIn(code string) string {
	if code == "" {
		return ""
	}
	return l.base + "/checkin/" + url.PathEscape(code)
}

func (l Links) MealSelection(token string) string {
	if token == "" {
		return ""
	}
	return l.base + "/meals/" + url.PathEscape(token)
}

type PartyView struct {
	Under5    int `json:"under5"`
	Age5To12  int `json:"age5to12"`
	Age12Plus int `json:"age12plus"`
	Over5     int `json:"over5"`
	Headcount int `json:"headcount"`
}

func partyView(p models.PartyComposition) PartyView {
	return PartyView{
		Under5:    p.Under5,
		Age5To12:  p.Age5To12,
		Age12Plus: p.Age12Plus,
		Over5:     p.Over5(),
		Headcount: p.Headcount(),
	}
}

// MealSelectionView is a stored selection plus the display grouping.
type MealSelectionView struct {
	AgeCategory models.AgeBand    `json:"age_category"`
	AgeGroup    models.AgeGroup   `json:"age_group"`
	PersonIndex int               `json:"person_index"`
	MealChoice  models.MealChoice `json:"meal_choice"`
}

func mealSelectionViews(selections []models.MealSelection) []MealSelectionView {
	views := make([]MealSelectionView, 0, len(selections))
	for _, s := range selections {
		views = append(views, MealSelectionView{
			AgeCategory: s.AgeCategory,
			AgeGroup:    s.AgeCategory.Group(),
			PersonIndex: s.PersonIndex,
			MealChoice:  s.MealChoice,
		})
	}
	return views
}

type RegistrationView struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Phone         string               `json:"phone"`
	Email         string               `json:"email"`
	Party         PartyView            `json:"party"`
	TotalAmount   int                  `json:"total_amount"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`

	CheckInCode string     `json:"check_in_code,omitempty"`
	CheckInURL  string     `json:"check_in_url,omitempty"`
	CheckedIn   bool       `json:"checked_in"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	CheckInBy   string     `json:"check_in_by,omitempty"`

	MealSelectionToken       string              `json:"meal_selection_token,omitempty"`
	MealSelectionURL         string              `json:"meal_selection_url,omitempty"`
	MealSelectionComplete    bool                `json:"meal_selection_complete"`
	MealSelectionDeadline    *time.Time          `json:"meal_selection_deadline,omitempty"`
	MealSelections           []MealSelectionView `json:"meal_selections"`
	DietaryRestrictions      string              `json:"dietary_restrictions"`
	MealSelectionSubmittedAt *time.Time          `json:"meal_selection_submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l Links) registrationView(r models.Registration) RegistrationView {
	return RegistrationView{
		ID:                       r.ID,
		Name:                     r.Name,
		Phone:                    r.Phone,
		Email:                    r.Email,
		Party:                    partyView(r.PartyComposition),
		TotalAmount:              r.TotalAmount,
		PaymentStatus:            r.PaymentStatus,
		CheckInCode:              r.CodeValue(),
		CheckInURL:               l.CheckIn(r.CodeValue()),
		CheckedIn:                r.CheckedIn,
		CheckInTime:              r.CheckInTime,
		CheckInBy:                r.CheckInBy,
		MealSelectionToken:       r.MealTokenValue(),
		MealSelectionURL:         l.MealSelection(r.MealTokenValue()),
		MealSelectionComplete:    r.MealSelectionComplete,
		MealSelectionDeadline:    r.MealSelectionDeadline,
		MealSelections:           mealSelectionViews(r.MealSelections),
		DietaryRestrictions:      r.DietaryRestrictions,
		MealSelectionSubmittedAt: r.MealSelectionSubmittedAt,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}

// CheckInView is what door staff see for a code. No contact details.
type CheckInView struct {
	Name          string               `json:"name"`
	Party         PartyView            `json:"party"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	CheckedIn     bool                 `json:"checked_in"`
	CheckInTime   *time.Time           `json:"check_in_time,omitempty"`
	CheckInBy     string               `json:"check_in_by,omitempty"`
	MealsComplete bool                 `json:"meal_selection_complete"`
}

func checkInView(r models.Registration) CheckInView {
	return CheckInView{
		Name:          r.Name,
		Party:         partyView(r.PartyComposition),
		PaymentStatus: r.PaymentStatus,
		CheckedIn:     r.CheckedIn,
		CheckInTime:   r.CheckInTime,
		CheckInBy:     r.CheckInBy,
		MealsComplete: r.MealSelectionComplete,
	}
}

type MealOptionsView struct {
	Under5 []models.MealChoice `json:"under5"`
	Over5  []models.MealChoice `json:"over5"`
}

// MealContextView is what the attendee sees behind a meal selection link.
type MealContextView struct {
	Name                     string              `json:"name"`
	Party                    PartyView           `json:"party"`
	Options                  MealOptionsView     `json:"options"`
	Selections               []MealSelectionView `json:"selections"`
	DietaryRestrictions      string              `json:"dietary_restrictions"`
	Complete                 bool                `json:"complete"`
	Deadline                 *time.Time          `json:"deadline,omitempty"`
	MealSelectionSubmittedAt *time.Time          `json:"submitted_at,omitempty"`
}

func mealContextView(r models.Registration) MealContextView {
	return MealContextView{
		Name:  r.Name,
		Party: partyView(r.PartyComposition),
		Options: MealOptionsView{
			Under5: models.MealChoicesFor(models.GroupUnder5),
			Over5:  models.MealChoicesFor(models.GroupOver5),
		},
		Selections:               mealSelectionViews(r.MealSelections),
		DietaryRestrictions:      r.DietaryRestrictions,
		Complete:                 r.MealSelectionComplete,
		Deadline:                 r.MealSelectionDeadline,
		MealSelectionSubmittedAt: r.MealSelectionSubmittedAt,
	}
}
