package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/model"
	"mentorhub/pkg/sanitizer"
	"mentorhub/pkg/timeofday"
	"mentorhub/pkg/validation"
)

const MinRuleMinutes = 15

var weekdays = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ConflictError names the two entries whose time ranges collide. OtherIndex is the batch
// position of the other entry, or -1 when it is already saved.
type ConflictError struct {
	Index      int
	Day        string
	Start      string
	End        string
	OtherIndex int
	OtherID    string
	OtherStart string
	OtherEnd   string
}

func (e *ConflictError) Error() string {
	if e.OtherIndex >= 0 {
		return fmt.Sprintf("%s %s-%s overlaps %s-%s in the same request (entries %d and %d)",
			e.Day, e.Start, e.End, e.OtherStart, e.OtherEnd, e.OtherIndex+1, e.Index+1)
	}
	return fmt.Sprintf("%s %s-%s overlaps your existing availability %s-%s",
		e.Day, e.Start, e.End, e.OtherStart, e.OtherEnd)
}

func (e *ConflictError) Details() map[string]any {
	details := map[string]any{
		"index":       e.Index,
		"day":         e.Day,
		"start_time":  e.Start,
		"end_time":    e.End,
		"other_start": e.OtherStart,
		"other_end":   e.OtherEnd,
	}
	if e.OtherIndex >= 0 {
		details["other_index"] = e.OtherIndex
	} else {
		details["other_id"] = e.OtherID
	}
	return details
}

type RuleValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewRuleValidator(log *logger.Logger) *RuleValidator {
	return &RuleValidator{
		validate: validation.New(),
		log:      log,
	}
}

type parsedRule struct {
	rule     *model.AvailabilityRule
	index    int
	interval timeofday.Interval
	weekday  int
}

func (p parsedRule) dayLabel() string {
	if p.rule.IsRecurring {
		return weekdays[p.weekday]
	}
	return p.rule.SpecificDate
}

// ValidateNew checks a batch of proposed rules against each other and against the mentor's
// saved rules. now and loc decide which specific dates are already in the past. Field
// problems return validation.Errors; the first overlap returns *ConflictError.
func (v *RuleValidator) ValidateNew(proposed, existing []*model.AvailabilityRule, now time.Time, loc *time.Location) error {
	if len(proposed) == 0 {
		return validation.Errors{{Field: "rules", Message: "at least one availability rule is required"}}
	}

	today := timeofday.Today(now, loc)
	local := now.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	var errs validation.Errors
	parsed := make([]parsedRule, 0, len(proposed))
	for i, rule := range proposed {
		p, ruleErrs := v.checkRule(rule, today, nowMinutes)
		if len(ruleErrs) > 0 {
			errs = append(errs, ruleErrs.Prefix(fmt.Sprintf("rules[%d]", i))...)
			continue
		}
		p.index = i
		parsed = append(parsed, p)
	}
	if len(errs) > 0 {
		return errs
	}

	for i := range parsed {
		for j := 0; j < i; j++ {
			if (relevant(parsed[i], parsed[j]) || relevant(parsed[j], parsed[i])) && timeofday.ConflictsWithin(parsed[i].interval, parsed[j].interval, true) {
				return conflict(parsed[i], parsed[j], parsed[j].index)
			}
		}
	}

	saved := make([]parsedRule, 0, len(existing))
	for _, rule := range existing {
		if p, ok := parseSaved(rule); ok {
			saved = append(saved, p)
		}
	}
	for _, p := range parsed {
		for _, s := range saved {
			if relevant(p, s) && timeofday.ConflictsWithin(p.interval, s.interval, true) {
				return conflict(p, s, -1)
			}
		}
	}

	return nil
}

func (v *RuleValidator) checkRule(rule *model.AvailabilityRule, today string, nowMinutes int) (parsedRule, validation.Errors) {
	if rule == nil {
		return parsedRule{}, validation.Errors{{Field: "rule", Message: "rule cannot be empty"}}
	}

	if err := validation.Struct(v.validate, rule); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return parsedRule{}, errs
		}
		return parsedRule{}, validation.Errors{{Field: "rule", Message: err.Error()}}
	}

	if rule.IsRecurring {
		if rule.DayOfWeek == nil {
			return parsedRule{}, validation.Errors{{Field: "day_of_week", Message: "day_of_week is required for recurring availability"}}
		}
		if rule.SpecificDate != "" {
			return parsedRule{}, validation.Errors{{Field: "specific_date", Message: "recurring availability cannot have a specific_date"}}
		}
	} else {
		if rule.SpecificDate == "" {
			return parsedRule{}, validation.Errors{{Field: "specific_date", Message: "specific_date is required for one-off availability"}}
		}
		if rule.DayOfWeek != nil {
			return parsedRule{}, validation.Errors{{Field: "day_of_week", Message: "one-off availability cannot have a day_of_week"}}
		}
	}

	start, _ := timeofday.Parse(rule.StartTime)
	end, _ := timeofday.Parse(rule.EndTime)
	if start == end {
		return parsedRule{}, validation.Errors{{Field: "end_time", Message: "start and end time cannot be the same"}}
	}
	interval := timeofday.NewInterval(start, end)
	if interval.Len() < MinRuleMinutes {
		return parsedRule{}, validation.Errors{{Field: "end_time", Message: fmt.Sprintf("availability must be at least %d minutes long", MinRuleMinutes)}}
	}

	p := parsedRule{rule: rule, interval: interval}
	if rule.IsRecurring {
		p.weekday = *rule.DayOfWeek
		return p, nil
	}

	if rule.SpecificDate < today {
		return parsedRule{}, validation.Errors{{Field: "specific_date", Message: "specific_date cannot be in the past"}}
	}
	if rule.SpecificDate == today && start <= nowMinutes {
		return parsedRule{}, validation.Errors{{Field: "start_time", Message: "start_time for today must be later than the current time"}}
	}
	p.weekday, _ = timeofday.Weekday(rule.SpecificDate)
	return p, nil
}

func parseSaved(rule *model.AvailabilityRule) (parsedRule, bool) {
	if rule == nil {
		return parsedRule{}, false
	}
	iv, err := timeofday.ParseInterval(rule.StartTime, rule.EndTime)
	if err != nil {
		return parsedRule{}, false
	}
	p := parsedRule{rule: rule, interval: iv, index: -1}
	if rule.IsRecurring {
		if rule.DayOfWeek == nil {
			return parsedRule{}, false
		}
		p.weekday = *rule.DayOfWeek
		return p, true
	}
	wd, err := timeofday.Weekday(rule.SpecificDate)
	if err != nil {
		return parsedRule{}, false
	}
	p.weekday = wd
	return p, true
}

// relevant reports whether a saved rule constrains a proposed one. Recurring rules are only
// compared with recurring rules; a one-off rule is also compared with the weekly rules of
// its weekday.
func relevant(proposed, saved parsedRule) bool {
	if proposed.rule.IsRecurring {
		return saved.rule.IsRecurring && saved.weekday == proposed.weekday
	}
	if saved.rule.IsRecurring {
		return saved.weekday == proposed.weekday
	}
	return saved.rule.SpecificDate == proposed.rule.SpecificDate
}

func conflict(p, other parsedRule, otherIndex int) *ConflictError {
	return &ConflictError{
		Index:      p.index,
		Day:        p.dayLabel(),
		Start:      p.rule.StartTime,
		End:        p.rule.EndTime,
		OtherIndex: otherIndex,
		OtherID:    other.rule.ID,
		OtherStart: other.rule.StartTime,
		OtherEnd:   other.rule.EndTime,
	}
}

// ValidateBlockDates expands a block request into the dates to block.
func (v *RuleValidator) ValidateBlockDates(req *model.BlockDatesRequest, maxDays int) ([]string, error) {
	if err := validation.Struct(v.validate, req); err != nil {
		return nil, err
	}

	hasList := len(req.Dates) > 0
	hasRange := req.From != "" || req.To != ""
	if hasList == hasRange {
		return nil, validation.Errors{{Field: "dates", Message: "provide either dates or a from/to range"}}
	}
	if hasRange && (req.From == "" || req.To == "") {
		return nil, validation.Errors{{Field: "to", Message: "a range needs both from and to"}}
	}

	if hasList {
		return sanitizer.NormalizeSlice(req.Dates, strings.TrimSpace), nil
	}

	dates, err := timeofday.DatesBetween(req.From, req.To, maxDays)
	if err != nil {
		return nil, validation.Errors{{Field: "to", Message: err.Error()}}
	}
	return dates, nil
}
