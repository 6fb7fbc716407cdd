package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/validation"
)

const mentorID = "65f1a2b3c4d5e6f7a8b9c0d1"

func newTestValidator() *RuleValidator {
	return NewRuleValidator(logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
}

func weekly(day int, start, end string) *model.AvailabilityRule {
	return &model.AvailabilityRule{MentorID: mentorID, DayOfWeek: &day, StartTime: start, EndTime: end, IsRecurring: true}
}

func oneOff(date, start, end string) *model.AvailabilityRule {
	return &model.AvailabilityRule{MentorID: mentorID, SpecificDate: date, StartTime: start, EndTime: end}
}

// Monday 2024-06-03 10:00 UTC.
var now = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func TestValidateNew_FieldErrors(t *testing.T) {
	v := newTestValidator()
	day := 1

	tests := []struct {
		name      string
		rule      *model.AvailabilityRule
		wantField string
	}{
		{"bad time format", weekly(1, "9:00", "10:00"), "rules[0].start_time"},
		{"weekday out of range", weekly(7, "09:00", "10:00"), "rules[0].day_of_week"},
		{"recurring without weekday", &model.AvailabilityRule{MentorID: mentorID, StartTime: "09:00", EndTime: "10:00", IsRecurring: true}, "rules[0].day_of_week"},
		{"one-off without date", &model.AvailabilityRule{MentorID: mentorID, StartTime: "09:00", EndTime: "10:00"}, "rules[0].specific_date"},
		{"one-off with weekday", &model.AvailabilityRule{MentorID: mentorID, DayOfWeek: &day, SpecificDate: "2024-06-10", StartTime: "09:00", EndTime: "10:00"}, "rules[0].day_of_week"},
		{"zero length", weekly(1, "09:00", "09:00"), "rules[0].end_time"},
		{"too short", weekly(1, "09:00", "09:10"), "rules[0].end_time"},
		{"too short across midnight", weekly(1, "23:55", "00:05"), "rules[0].end_time"},
		{"past date", oneOff("2024-06-02", "09:00", "10:00"), "rules[0].specific_date"},
		{"today already started", oneOff("2024-06-03", "10:00", "11:00"), "rules[0].start_time"},
		{"missing mentor", &model.AvailabilityRule{DayOfWeek: &day, StartTime: "09:00", EndTime: "10:00", IsRecurring: true}, "rules[0].mentor_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateNew([]*model.AvailabilityRule{tt.rule}, nil, now, time.UTC)

			var errs validation.Errors
			if !errors.As(err, &errs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s (%v)", errs[0].Field, tt.wantField, errs)
			}
		})
	}
}

func TestValidateNew_AcceptsValidBatch(t *testing.T) {
	v := newTestValidator()

	batch := []*model.AvailabilityRule{
		weekly(1, "09:00", "12:00"),
		weekly(1, "13:00", "17:00"),
		weekly(5, "22:00", "02:00"),
		oneOff("2024-06-03", "18:00", "19:00"),
		oneOff("2024-06-04", "09:00", "10:00"),
	}
	existing := []*model.AvailabilityRule{weekly(3, "09:00", "10:00")}

	if err := v.ValidateNew(batch, existing, now, time.UTC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateNew_Conflicts(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name       string
		proposed   []*model.AvailabilityRule
		existing   []*model.AvailabilityRule
		otherIndex int
		contains   string
	}{
		{
			name:       "overlap within batch",
			proposed:   []*model.AvailabilityRule{weekly(1, "09:00", "11:00"), weekly(1, "10:30", "12:00")},
			otherIndex: 0,
			contains:   "entries 1 and 2",
		},
		{
			name:       "touching bounds are inclusive",
			proposed:   []*model.AvailabilityRule{weekly(3, "09:00", "10:00"), weekly(3, "10:00", "11:00")},
			otherIndex: 0,
		},
		{
			name:       "wrapping rule collides with early slot on the same day",
			proposed:   []*model.AvailabilityRule{weekly(5, "22:00", "02:00"), weekly(5, "01:00", "03:00")},
			otherIndex: 0,
		},
		{
			name:       "one-off against weekly rule of its weekday in the same batch",
			proposed:   []*model.AvailabilityRule{weekly(1, "09:00", "12:00"), oneOff("2024-06-10", "10:00", "11:00")},
			otherIndex: 0,
			contains:   "entries 1 and 2",
		},
		{
			name:       "weekly rule after a one-off of its weekday in the same batch",
			proposed:   []*model.AvailabilityRule{oneOff("2024-06-10", "10:00", "11:00"), weekly(1, "09:00", "12:00")},
			otherIndex: 0,
		},
		{
			name:       "recurring against saved recurring",
			proposed:   []*model.AvailabilityRule{weekly(1, "09:00", "10:00")},
			existing:   []*model.AvailabilityRule{weekly(1, "09:30", "11:00")},
			otherIndex: -1,
			contains:   "existing availability 09:30-11:00",
		},
		{
			name:       "one-off against saved weekly rule of its weekday",
			proposed:   []*model.AvailabilityRule{oneOff("2024-06-10", "14:00", "15:00")},
			existing:   []*model.AvailabilityRule{weekly(1, "13:00", "17:00")},
			otherIndex: -1,
		},
		{
			name:       "one-off against saved one-off on the same date",
			proposed:   []*model.AvailabilityRule{oneOff("2024-06-10", "14:00", "15:00")},
			existing:   []*model.AvailabilityRule{oneOff("2024-06-10", "14:30", "16:00")},
			otherIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateNew(tt.proposed, tt.existing, now, time.UTC)

			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected ConflictError, got %v", err)
			}
			if conflict.OtherIndex != tt.otherIndex {
				t.Errorf("other index = %d, want %d", conflict.OtherIndex, tt.otherIndex)
			}
			if tt.contains != "" && !strings.Contains(conflict.Error(), tt.contains) {
				t.Errorf("message %q should contain %q", conflict.Error(), tt.contains)
			}
		})
	}
}

func TestValidateNew_SavedOneOffDoesNotConstrainWeeklyRule(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateNew(
		[]*model.AvailabilityRule{weekly(1, "14:00", "15:00")},
		[]*model.AvailabilityRule{oneOff("2024-06-10", "14:00", "15:00")},
		now, time.UTC,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateNew_UsesMentorTimezoneForToday(t *testing.T) {
	v := newTestValidator()
	tokyo, _ := time.LoadLocation("Asia/Tokyo")

	// 10:00 UTC is 19:00 in Tokyo, so 18:00 on the same Tokyo date has already passed.
	err := v.ValidateNew([]*model.AvailabilityRule{oneOff("2024-06-03", "18:00", "19:00")}, nil, now, tokyo)
	var errs validation.Errors
	if !errors.As(err, &errs) || errs[0].Field != "rules[0].start_time" {
		t.Errorf("expected start_time error, got %v", err)
	}
}

func TestValidateBlockDates(t *testing.T) {
	v := newTestValidator()

	dates, err := v.ValidateBlockDates(&model.BlockDatesRequest{From: "2024-06-29", To: "2024-07-02"}, 366)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 4 || dates[0] != "2024-06-29" || dates[3] != "2024-07-02" {
		t.Errorf("unexpected expansion %v", dates)
	}

	dates, err = v.ValidateBlockDates(&model.BlockDatesRequest{Dates: []string{"2024-06-29", "2024-06-29"}}, 366)
	if err != nil || len(dates) != 1 {
		t.Errorf("duplicates should collapse, got %v (%v)", dates, err)
	}

	bad := []*model.BlockDatesRequest{
		{},
		{Dates: []string{"2024-06-29"}, From: "2024-06-29", To: "2024-06-30"},
		{From: "2024-06-29"},
		{From: "2024-01-01", To: "2025-12-31"},
		{Dates: []string{"29/06/2024"}},
	}
	for i, req := range bad {
		if _, err := v.ValidateBlockDates(req, 366); err == nil {
			t.Errorf("request %d should be rejected", i)
		}
	}
}
