package models

import (
	"gorm.io/gorm"
)

type HistoryAction string

const (
	ActionCreated       HistoryAction = "created"
	ActionPaymentStatus HistoryAction = "payment_status"
	ActionCheckInCode   HistoryAction = "check_in_code_assigned"
	ActionMealToken     HistoryAction = "meal_token_assigned"
	ActionCheckedIn     HistoryAction = "checked_in"
	ActionCheckInUndone HistoryAction = "check_in_undone"
	ActionMealSubmitted HistoryAction = "meal_selection_submitted"
	ActionMealDeadline  HistoryAction = "meal_deadline_changed"
	ActionDeleted       HistoryAction = "deleted"
)

type RegistrationHistory struct {
	gorm.Model
	RegistrationID string        `json:"registration_id" gorm:"index;size:36"`
	Action         HistoryAction `json:"action"`
	Actor          string        `json:"actor"`
	Detail         string        `json:"detail"`
}
