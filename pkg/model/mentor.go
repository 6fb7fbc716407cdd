package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type MentorProfile struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string            `json:"name" bson:"name" validate:"required,max=100"`
	Email     string            `json:"email" bson:"email" validate:"required,email,max=254"`
	Timezone  string            `json:"timezone" bson:"timezone" validate:"required,timezone"`
	Services  []ServiceOffering `json:"services" bson:"services" validate:"max=20"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// Service returns the mentor's offering of the given kind.
func (p *MentorProfile) Service(kind SessionType) (Service, bool) {
	for _, s := range p.Services {
		if s.Service != nil && s.Type() == kind {
			return s.Service, true
		}
	}
	return nil, false
}

// Service is a closed sum over the four kinds a mentor can sell. Only live sessions carry
// a duration.
type Service interface {
	Type() SessionType
	Amount() float64
	DurationMinutes() int
	service()
}

type OneOnOneService struct {
	DurationMin int
	Price       float64
}

type ChatAdviceService struct{ Price float64 }

type DigitalProductService struct{ Price float64 }

type NotesService struct{ Price float64 }

func (s OneOnOneService) Type() SessionType    { return SessionOneOnOne }
func (s OneOnOneService) Amount() float64      { return s.Price }
func (s OneOnOneService) DurationMinutes() int { return s.DurationMin }
func (OneOnOneService) service()               {}

func (s ChatAdviceService) Type() SessionType    { return SessionChatAdvice }
func (s ChatAdviceService) Amount() float64      { return s.Price }
func (s ChatAdviceService) DurationMinutes() int { return 0 }
func (ChatAdviceService) service()               {}

func (s DigitalProductService) Type() SessionType    { return SessionDigitalProduct }
func (s DigitalProductService) Amount() float64      { return s.Price }
func (s DigitalProductService) DurationMinutes() int { return 0 }
func (DigitalProductService) service()               {}

func (s NotesService) Type() SessionType    { return SessionNotes }
func (s NotesService) Amount() float64      { return s.Price }
func (s NotesService) DurationMinutes() int { return 0 }
func (NotesService) service()               {}

var ErrInvalidService = errors.New("invalid service")

// ServiceOffering carries a Service through JSON and BSON as
// {"type": ..., "duration_min": ..., "price": ...}.
type ServiceOffering struct {
	Service
}

type serviceWire struct {
	Type        SessionType `json:"type" bson:"type"`
	DurationMin *int        `json:"duration_min,omitempty" bson:"duration_min,omitempty"`
	Price       float64     `json:"price" bson:"price"`
}

func NewService(kind SessionType, durationMin int, price float64) (Service, error) {
	w := serviceWire{Type: kind, Price: price}
	if durationMin != 0 {
		w.DurationMin = &durationMin
	}
	return w.decode()
}

func (w serviceWire) decode() (Service, error) {
	if w.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidService)
	}
	if !w.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidService, w.Type)
	}
	if !w.Type.NeedsScheduling() {
		if w.DurationMin != nil {
			return nil, fmt.Errorf("%w: %s does not take a duration", ErrInvalidService, w.Type)
		}
	} else if w.DurationMin == nil || *w.DurationMin <= 0 || *w.DurationMin > 480 {
		return nil, fmt.Errorf("%w: %s needs a duration between 1 and 480 minutes", ErrInvalidService, w.Type)
	}

	switch w.Type {
	case SessionOneOnOne:
		return OneOnOneService{DurationMin: *w.DurationMin, Price: w.Price}, nil
	case SessionChatAdvice:
		return ChatAdviceService{Price: w.Price}, nil
	case SessionDigitalProduct:
		return DigitalProductService{Price: w.Price}, nil
	default:
		return NotesService{Price: w.Price}, nil
	}
}

func (o ServiceOffering) wire() (serviceWire, error) {
	if o.Service == nil {
		return serviceWire{}, fmt.Errorf("%w: empty offering", ErrInvalidService)
	}
	w := serviceWire{Type: o.Type(), Price: o.Amount()}
	if d := o.DurationMinutes(); d > 0 {
		w.DurationMin = &d
	}
	return w, nil
}

func (o ServiceOffering) MarshalJSON() ([]byte, error) {
	w, err := o.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (o *ServiceOffering) UnmarshalJSON(data []byte) error {
	var w serviceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s, err := w.decode()
	if err != nil {
		return err
	}
	o.Service = s
	return nil
}

func (o ServiceOffering) MarshalBSON() ([]byte, error) {
	w, err := o.wire()
	if err != nil {
		return nil, err
	}
	return bson.Marshal(w)
}

func (o *ServiceOffering) UnmarshalBSON(data []byte) error {
	var w serviceWire
	if err := bson.Unmarshal(data, &w); err != nil {
		return err
	}
	s, err := w.decode()
	if err != nil {
		return err
	}
	o.Service = s
	return nil
}
