package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentConfirmed PaymentStatus = "confirmed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentConfirmed:
		return true
	}
	return false
}

// Ticket prices per age band, in whole currency units.
const (
	PriceUnder5    = 0
	PriceAge5To12  = 10
	PriceAge12Plus = 15
)

type PartyComposition struct {
	Under5    int `json:"under5"`
	Age5To12  int `json:"age5to12" gorm:"column:age5to12"`
	Age12Plus int `json:"age12plus" gorm:"column:age12plus"`
}

func (p PartyComposition) Over5() int {
	return p.Age5To12 + p.Age12Plus
}

func (p PartyComposition) Headcount() int {
	return p.Under5 + p.Over5()
}

func (p PartyComposition) Amount() int {
	return p.Under5*PriceUnder5 + p.Age5To12*PriceAge5To12 + p.Age12Plus*PriceAge12Plus
}

// Count returns how many attendees of the registration fall into the group.
func (p PartyComposition) Count(g AgeGroup) int {
	switch g {
	case GroupUnder5:
		return p.Under5
	case GroupOver5:
		return p.Over5()
	}
	return 0
}

type Registration struct {
	ID    string `json:"id" gorm:"primaryKey;size:36"`
	Name  string `json:"name" gorm:"not null"`
	Phone string `json:"phone"`
	Email string `json:"email" gorm:"index"`

	PartyComposition `gorm:"embedded"`
	TotalAmount      int `json:"total_amount"`

	PaymentStatus PaymentStatus `json:"payment_status" gorm:"index;not null;default:'pending'"`

	CheckInCode *string    `json:"check_in_code" gorm:"uniqueIndex"`
	CheckedIn   bool       `json:"checked_in" gorm:"index;not null;default:false"`
	CheckInTime *time.Time `json:"check_in_time"`
	CheckInBy   string     `json:"check_in_by"`

	MealSelectionToken       *string                            `json:"meal_selection_token" gorm:"uniqueIndex"`
	MealSelectionComplete    bool                               `json:"meal_selection_complete" gorm:"not null;default:false"`
	MealSelectionDeadline    *time.Time                         `json:"meal_selection_deadline"`
	MealSelections           datatypes.JSONSlice[MealSelection] `json:"meal_selections"`
	DietaryRestrictions      string                             `json:"dietary_restrictions"`
	MealSelectionSubmittedAt *time.Time                         `json:"meal_selection_submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
	return nil
}

func (r *Registration) BeforeSave(tx *gorm.DB) error {
	r.TotalAmount = r.PartyComposition.Amount()
	return nil
}

func (r *Registration) HasCheckInCode() bool {
	return r.CheckInCode != nil && *r.CheckInCode != ""
}

func (r *Registration) HasMealToken() bool {
	return r.MealSelectionToken != nil && *r.MealSelectionToken != ""
}

// CodeValue returns the check-in code or "" when none has been assigned.
func (r *Registration) CodeValue() string {
	if r.CheckInCode == nil {
		return ""
	}
	return *r.CheckInCode
}

func (r *Registration) MealTokenValue() string {
	if r.MealSelectionToken == nil {
		return ""
	}
	return *r.MealSelectionToken
}
