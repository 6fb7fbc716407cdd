package model

import "time"

// AvailabilityRule is one bookable interval. Recurring rules carry DayOfWeek (0 = Sunday),
// one-off rules carry SpecificDate. EndTime before StartTime means the interval ends the next day.
type AvailabilityRule struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	MentorID     string    `json:"mentor_id" bson:"mentor_id" validate:"required,mongodb"`
	DayOfWeek    *int      `json:"day_of_week,omitempty" bson:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	StartTime    string    `json:"start_time" bson:"start_time" validate:"required,hhmm"`
	EndTime      string    `json:"end_time" bson:"end_time" validate:"required,hhmm"`
	IsRecurring  bool      `json:"is_recurring" bson:"is_recurring"`
	SpecificDate string    `json:"specific_date,omitempty" bson:"specific_date,omitempty" validate:"omitempty,calendar_date"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (r *AvailabilityRule) Weekday() int {
	if r.DayOfWeek == nil {
		return -1
	}
	return *r.DayOfWeek
}

type BlockedDate struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	MentorID  string    `json:"mentor_id" bson:"mentor_id" validate:"required,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,calendar_date"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty" validate:"max=500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BlockDatesRequest blocks either an explicit list of dates or an inclusive From..To range.
type BlockDatesRequest struct {
	Dates  []string `json:"dates,omitempty" validate:"omitempty,max=366,dive,calendar_date"`
	From   string   `json:"from,omitempty" validate:"omitempty,calendar_date"`
	To     string   `json:"to,omitempty" validate:"omitempty,calendar_date"`
	Reason string   `json:"reason,omitempty" validate:"max=500"`
}

// TimeSlot is a resolved candidate start. Date is the calendar day the slot starts on, which
// is the day after the requested date for the tail of an interval crossing midnight.
type TimeSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
