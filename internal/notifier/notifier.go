package notifier

import (
	"errors"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(registration models.Registration) error
	NotifyPaymentConfirmed(registration models.Registration) error
	NotifyCheckIn(registration models.Registration) error
}

// Multi fans a notification out to every configured notifier. A nil or
// empty Multi is a valid no-op notifier.
type Multi []Notifier

func (m Multi) NotifyRegistration(registration models.Registration) error {
	return m.each(func(n Notifier) error { return n.NotifyRegistration(registration) })
}

func (m Multi) NotifyPaymentConfirmed(registration models.Registration) error {
	return m.each(func(n Notifier) error { return n.NotifyPaymentConfirmed(registration) })
}

func (m Multi) NotifyCheckIn(registration models.Registration) error {
	return m.each(func(n Notifier) error { return n.NotifyCheckIn(registration) })
}

func (m Multi) each(fn func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
