package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortName        SortField = "name"
	SortTotalAmount SortField = "total_amount"
)

type ListFilter struct {
	PaymentStatus models.PaymentStatus
	CheckedIn     *bool
	Search        string
	Sort          SortField
	Descending    bool
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if err := r.db.WithContext(ctx).Create(reg).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (models.Registration, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *RegistrationRepository) FindByCheckInCode(ctx context.Context, code string) (models.Registration, error) {
	if code == "" {
		return models.Registration{}, ErrRegistrationNotFound
	}
	return r.findOne(ctx, "check_in_code = ?", code)
}

func (r *RegistrationRepository) FindByMealToken(ctx context.Context, token string) (models.Registration, error) {
	if token == "" {
		return models.Registration{}, ErrRegistrationNotFound
	}
	return r.findOne(ctx, "meal_selection_token = ?", token)
}

func (r *RegistrationRepository) findOne(ctx context.Context, query string, arg any) (models.Registration, error) {
	var reg models.Registration
	if err := r.db.WithContext(ctx).Where(query, arg).First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Registration{}, ErrRegistrationNotFound
		}
		return models.Registration{}, err
	}
	return reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context, filter ListFilter) ([]models.Registration, error) {
	q := r.db.WithContext(ctx).Model(&models.Registration{})

	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.CheckedIn != nil {
		q = q.Where("checked_in = ?", *filter.CheckedIn)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\'`, like, like, like)
	}

	var column string
	switch filter.Sort {
	case SortName:
		column = "LOWER(name)"
	case SortTotalAmount:
		column = "total_amount"
	default:
		column = "created_at"
	}
	order := column + " ASC"
	if filter.Descending {
		order = column + " DESC"
	}

	var regs []models.Registration
	if err := q.Order(order).Order("id ASC").Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *RegistrationRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// MarkPaid sets the status to paid and, in the same statement, gives the
// registration code unless it already has one.
func (r *RegistrationRepository) MarkPaid(ctx context.Context, id, code string) error {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": models.PaymentPaid,
			"check_in_code": gorm.Expr(
				"CASE WHEN check_in_code IS NULL OR check_in_code = '' THEN ? ELSE check_in_code END", code),
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicateToken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) UpdateMealDeadline(ctx context.Context, id string, deadline time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ?", id).
		Update("meal_selection_deadline", deadline)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Registration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// AssignCheckInCode sets the code for a paid registration that has none
// yet. It reports whether the row was updated.
func (r *RegistrationRepository) AssignCheckInCode(ctx context.Context, id, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND payment_status = ? AND (check_in_code IS NULL OR check_in_code = '')", id, models.PaymentPaid).
		Update("check_in_code", code)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, ErrDuplicateToken
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AssignMealToken sets the token, resets completion and stamps the deadline
// for a paid registration that has no token yet.
func (r *RegistrationRepository) AssignMealToken(ctx context.Context, id, token string, deadline time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND payment_status = ? AND (meal_selection_token IS NULL OR meal_selection_token = '')", id, models.PaymentPaid).
		Updates(map[string]any{
			"meal_selection_token":    token,
			"meal_selection_complete": false,
			"meal_selection_deadline": deadline,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, ErrDuplicateToken
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkCheckedIn flips checked_in for a paid registration that is not yet
// checked in. A false result means some precondition did not hold at write
// time; callers re-read to find out which.
func (r *RegistrationRepository) MarkCheckedIn(ctx context.Context, code string, at time.Time, by string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("check_in_code = ? AND checked_in = ? AND payment_status = ?", code, false, models.PaymentPaid).
		Updates(map[string]any{
			"checked_in":    true,
			"check_in_time": at,
			"check_in_by":   by,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RegistrationRepository) UndoCheckIn(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("check_in_code = ? AND checked_in = ?", code, true).
		Updates(map[string]any{
			"checked_in":    false,
			"check_in_time": nil,
			"check_in_by":   "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CompleteMealSelection stores the selections if none have been stored yet.
func (r *RegistrationRepository) CompleteMealSelection(ctx context.Context, token string, selections []models.MealSelection, dietary string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("meal_selection_token = ? AND meal_selection_complete = ?", token, false).
		Updates(map[string]any{
			"meal_selections":             datatypes.NewJSONSlice(selections),
			"dietary_restrictions":        dietary,
			"meal_selection_complete":     true,
			"meal_selection_submitted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RegistrationRepository) FindPaidWithoutCheckInCode(ctx context.Context) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND (check_in_code IS NULL OR check_in_code = '')", models.PaymentPaid).
		Order("created_at ASC").
		Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepository) FindPaidWithoutMealToken(ctx context.Context) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND (meal_selection_token IS NULL OR meal_selection_token = '')", models.PaymentPaid).
		Order("created_at ASC").
		Find(&regs).Error
	return regs, err
}

type TokenCounts struct {
	Needing int64
	Have    int64
}

func (r *RegistrationRepository) CountCheckInCodes(ctx context.Context) (TokenCounts, error) {
	return r.countTokens(ctx, "check_in_code")
}

func (r *RegistrationRepository) CountMealTokens(ctx context.Context) (TokenCounts, error) {
	return r.countTokens(ctx, "meal_selection_token")
}

func (r *RegistrationRepository) countTokens(ctx context.Context, column string) (TokenCounts, error) {
	var counts TokenCounts
	db := r.db.WithContext(ctx).Model(&models.Registration{})

	err := db.Session(&gorm.Session{}).
		Where("payment_status = ? AND ("+column+" IS NULL OR "+column+" = '')", models.PaymentPaid).
		Count(&counts.Needing).Error
	if err != nil {
		return TokenCounts{}, err
	}

	err = db.Session(&gorm.Session{}).
		Where(column + " IS NOT NULL AND " + column + " <> ''").
		Count(&counts.Have).Error
	if err != nil {
		return TokenCounts{}, err
	}
	return counts, nil
}

type Stats struct {
	Registrations        int64 `json:"registrations"`
	Pending              int64 `json:"pending"`
	Paid                 int64 `json:"paid"`
	Confirmed            int64 `json:"confirmed"`
	CheckedIn            int64 `json:"checked_in"`
	Under5               int64 `json:"under5"`
	Age5To12             int64 `json:"age5to12"`
	Age12Plus            int64 `json:"age12plus"`
	AmountPaid           int64 `json:"amount_paid"`
	MealSelectionsDone   int64 `json:"meal_selections_done"`
	PaidWithoutCode      int64 `json:"paid_without_code"`
	PaidWithoutMealToken int64 `json:"paid_without_meal_token"`
}

func (r *RegistrationRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx).Model(&models.Registration{})

	row := db.Session(&gorm.Session{}).Select(
		"COUNT(*)",
		"CAST(COALESCE(SUM(CASE WHEN payment_status = 'pending' THEN 1 ELSE 0 END), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN 1 ELSE 0 END), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(CASE WHEN payment_status = 'confirmed' THEN 1 ELSE 0 END), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(CASE WHEN checked_in THEN 1 ELSE 0 END), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(under5), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(age5to12), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(age12plus), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(CASE WHEN payment_status <> 'pending' THEN total_amount ELSE 0 END), 0) AS BIGINT)",
		"CAST(COALESCE(SUM(CASE WHEN meal_selection_complete THEN 1 ELSE 0 END), 0) AS BIGINT)",
	).Row()
	if err := row.Scan(
		&s.Registrations, &s.Pending, &s.Paid, &s.Confirmed, &s.CheckedIn,
		&s.Under5, &s.Age5To12, &s.Age12Plus, &s.AmountPaid, &s.MealSelectionsDone,
	); err != nil {
		return Stats{}, err
	}

	codes, err := r.CountCheckInCodes(ctx)
	if err != nil {
		return Stats{}, err
	}
	tokens, err := r.CountMealTokens(ctx)
	if err != nil {
		return Stats{}, err
	}
	s.PaidWithoutCode = codes.Needing
	s.PaidWithoutMealToken = tokens.Needing
	return s, nil
}

func (r *RegistrationRepository) AppendHistory(ctx context.Context, entry *models.RegistrationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *RegistrationRepository) History(ctx context.Context, registrationID string) ([]models.RegistrationHistory, error) {
	var entries []models.RegistrationHistory
	err := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("created_at DESC").Order("id DESC").
		Find(&entries).Error
	return entries, err
}
