package validator

import (
	"github.com/go-playground/validator/v10"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/validation"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// Validate checks a fully built booking. Live sessions need a positive duration; the other
// kinds are not scheduled and must not carry one.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := validation.Struct(v.validate, booking); err != nil {
		return err
	}

	if booking.SessionType.NeedsScheduling() {
		if booking.Duration <= 0 {
			return validation.Errors{{Field: "duration", Message: "a live session needs a duration"}}
		}
	} else if booking.Duration != 0 {
		return validation.Errors{{Field: "duration", Message: "only live sessions take a duration"}}
	}
	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}
	if update.Status == model.BookingStatusCancelled && update.MeetingLink != "" {
		return validation.Errors{{Field: "meeting_link", Message: "a cancelled booking cannot have a meeting link"}}
	}
	return nil
}
