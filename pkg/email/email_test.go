package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.sent = append(d.sent, m...)
	return d.err
}

func newTestClient(d *fakeDialer) *Client {
	c := New(Config{Enabled: true, From: "MentorHub <no-reply@mentorhub.dev>", Host: "smtp.test", Port: 587, Timeout: time.Second})
	c.dial = func() dialer { return d }
	return c
}

func TestSend_BuildsMultipartMessage(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)

	err := c.Send(context.Background(), Message{
		To:       []string{" student@example.com ", ""},
		Subject:  "Your booking request was sent",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
		Headers:  map[string]string{"X-Booking-ID": "b1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(d.sent))
	}

	msg := d.sent[0]
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "student@example.com" {
		t.Errorf("unexpected recipients %v", got)
	}
	if got := msg.GetHeader("X-Booking-ID"); len(got) != 1 || got[0] != "b1" {
		t.Errorf("custom header missing: %v", got)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.Contains(buf.String(), "multipart/alternative") {
		t.Errorf("text and html bodies should be sent as alternatives")
	}
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(*Client)
		d     *fakeDialer
		msg   Message
		check func(error) bool
	}{
		{
			name:  "disabled",
			cfg:   func(c *Client) { c.cfg.Enabled = false },
			d:     &fakeDialer{},
			msg:   Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"},
			check: func(err error) bool { return errors.As(err, &ErrDisabled{}) },
		},
		{
			name:  "no recipients",
			d:     &fakeDialer{},
			msg:   Message{Subject: "s", TextBody: "t"},
			check: func(err error) bool { return errors.As(err, &ErrInvalidMessage{}) },
		},
		{
			name:  "no body",
			d:     &fakeDialer{},
			msg:   Message{To: []string{"a@b.c"}, Subject: "s"},
			check: func(err error) bool { return errors.As(err, &ErrInvalidMessage{}) },
		},
		{
			name: "smtp failure",
			d:    &fakeDialer{err: errors.New("421 service not available")},
			msg:  Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"},
			check: func(err error) bool {
				var sendErr ErrSend
				return errors.As(err, &sendErr) && strings.Contains(sendErr.Err.Error(), "421")
			},
		},
		{
			name:  "timeout",
			cfg:   func(c *Client) { c.cfg.Timeout = 10 * time.Millisecond },
			d:     &fakeDialer{delay: 200 * time.Millisecond},
			msg:   Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "t"},
			check: func(err error) bool { return errors.As(err, &ErrSend{}) && strings.Contains(err.Error(), "timeout") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(tt.d)
			if tt.cfg != nil {
				tt.cfg(c)
			}
			err := c.Send(context.Background(), tt.msg)
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
