package gateway

import (
	"encoding/json"
	"fmt"

	"ctspark-backend/internal/domain"
)

type EventKind int

const (
	EventUnhandled EventKind = iota
	EventChargeSuccess
	EventChargeFailed
)

func (k EventKind) String() string {
	switch k {
	case EventChargeSuccess:
		return "charge.success"
	case EventChargeFailed:
		return "charge.failed"
	default:
		return "unhandled"
	}
}

// Event is a webhook payload reduced to what reconciliation needs. It only
// triggers a verify call; amounts and status in it are never trusted.
type Event struct {
	Kind            EventKind
	Name            string
	Reference       string
	Amount          domain.Kobo
	CustomerEmail   string
	GatewayResponse string
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		GatewayResponse string `json:"gateway_response"`
		Customer        struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// ParseEvent decodes a webhook body. Unknown event names come back as
// EventUnhandled; known ones without a reference fail with ErrMalformedEvent.
func ParseEvent(raw []byte) (Event, error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	ev := Event{
		Name:            p.Event,
		Reference:       p.Data.Reference,
		Amount:          domain.Kobo(p.Data.Amount),
		CustomerEmail:   p.Data.Customer.Email,
		GatewayResponse: p.Data.GatewayResponse,
	}
	switch p.Event {
	case "charge.success":
		ev.Kind = EventChargeSuccess
	case "charge.failed":
		ev.Kind = EventChargeFailed
	default:
		ev.Kind = EventUnhandled
		return ev, nil
	}
	if ev.Reference == "" {
		return Event{}, fmt.Errorf("%w: %s without data.reference", domain.ErrMalformedEvent, p.Event)
	}
	return ev, nil
}
