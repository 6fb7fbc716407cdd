package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentorhub/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type ComposerOptions struct {
	AppName      string
	SupportEmail string
	BaseURL      string
	Now          func() time.Time
}

// Composer renders booking emails. Recipient names and free text are escaped by html/template.
type Composer struct {
	tmpl *template.Template
	opts ComposerOptions
}

func NewComposer(opts ComposerOptions) (*Composer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Composer{tmpl: tmpl, opts: opts}, nil
}

type view struct {
	AppName         string
	SupportEmail    string
	Audience        Audience
	RecipientName   string
	StudentName     string
	StudentEmail    string
	StudentPhone    string
	MentorName      string
	SessionLabel    string
	When            string
	Duration        int
	Amount          string
	Status          string
	Message         string
	MeetingLink     string
	MeetingProvider string
	ReferenceURL    string
	Window          string
}

var sessionLabels = map[model.SessionType]string{
	model.SessionOneOnOne:       "1:1 video session",
	model.SessionChatAdvice:     "Chat advice",
	model.SessionDigitalProduct: "Digital product",
	model.SessionNotes:          "Notes review",
}

// BookingCreated returns the student's receipt and the mentor's heads-up.
func (c *Composer) BookingCreated(b *model.Booking, mentor *model.MentorProfile, reference string) ([]Notification, error) {
	student := c.view(b, mentor, reference, AudienceStudent)
	mentorView := c.view(b, mentor, reference, AudienceMentor)

	out := make([]Notification, 0, 2)
	n, err := c.render(KindBookingCreated, b, student, "booking_created_student", b.UserEmail,
		fmt.Sprintf("Your booking request with %s", student.MentorName))
	if err != nil {
		return nil, err
	}
	out = append(out, n)

	if mentor == nil || mentor.Email == "" {
		return out, nil
	}
	n, err = c.render(KindBookingCreated, b, mentorView, "booking_created_mentor", mentor.Email,
		fmt.Sprintf("New booking request from %s", b.UserName))
	if err != nil {
		return nil, err
	}
	return append(out, n), nil
}

func (c *Composer) StatusChanged(b *model.Booking, mentor *model.MentorProfile, reference string) (Notification, error) {
	v := c.view(b, mentor, reference, AudienceStudent)

	subject := fmt.Sprintf("Your booking with %s is %s", v.MentorName, b.Status)
	switch b.Status {
	case model.BookingStatusConfirmed:
		subject = fmt.Sprintf("Confirmed: your session with %s", v.MentorName)
	case model.BookingStatusCancelled:
		subject = fmt.Sprintf("Cancelled: your session with %s", v.MentorName)
	}
	return c.render(KindStatusChanged, b, v, "status_changed", b.UserEmail, subject)
}

// Reminder returns one reminder for the student and, when the mentor is known, one for the mentor.
func (c *Composer) Reminder(b *model.Booking, mentor *model.MentorProfile, reference string, window time.Duration) ([]Notification, error) {
	label := windowLabel(window)

	student := c.view(b, mentor, reference, AudienceStudent)
	student.Window = label
	n, err := c.render(KindReminder, b, student, "reminder", b.UserEmail,
		fmt.Sprintf("Reminder: your session with %s starts in %s", student.MentorName, label))
	if err != nil {
		return nil, err
	}
	out := []Notification{n}

	if mentor == nil || mentor.Email == "" {
		return out, nil
	}
	mv := c.view(b, mentor, reference, AudienceMentor)
	mv.Window = label
	n, err = c.render(KindReminder, b, mv, "reminder", mentor.Email,
		fmt.Sprintf("Reminder: session with %s starts in %s", b.UserName, label))
	if err != nil {
		return nil, err
	}
	return append(out, n), nil
}

func (c *Composer) view(b *model.Booking, mentor *model.MentorProfile, reference string, audience Audience) view {
	v := view{
		AppName:         c.opts.AppName,
		SupportEmail:    c.opts.SupportEmail,
		Audience:        audience,
		StudentName:     b.UserName,
		StudentEmail:    b.UserEmail,
		StudentPhone:    b.UserPhone,
		MentorName:      "your mentor",
		SessionLabel:    sessionLabels[b.SessionType],
		Amount:          fmt.Sprintf("%.2f", b.TotalAmount),
		Status:          b.Status,
		Message:         b.Message,
		MeetingLink:     b.MeetingLink,
		MeetingProvider: b.MeetingProvider,
	}
	if mentor != nil && mentor.Name != "" {
		v.MentorName = mentor.Name
	}

	v.RecipientName = b.UserName
	if audience == AudienceMentor {
		v.RecipientName = strings.TrimPrefix(v.MentorName, "your ")
	}

	if b.SessionType.NeedsScheduling() {
		if start, err := b.StartsAt(); err == nil {
			v.When = fmt.Sprintf("%s (%s)", start.Format("Mon, 2 Jan 2006 at 15:04"), b.Timezone)
			v.Duration = b.Duration
		}
	}
	if reference != "" && c.opts.BaseURL != "" {
		v.ReferenceURL = c.opts.BaseURL + "/bookings/ref/" + url.PathEscape(reference)
	}
	return v
}

func (c *Composer) render(kind Kind, b *model.Booking, v view, name, recipient, subject string) (Notification, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return Notification{}, fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Audience:  v.Audience,
		BookingID: b.ID,
		Recipient: recipient,
		Subject:   subject,
		HTMLBody:  buf.String(),
		CreatedAt: c.opts.Now().UTC(),
	}, nil
}

func windowLabel(d time.Duration) string {
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
