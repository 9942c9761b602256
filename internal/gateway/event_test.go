package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/gateway"
)

func TestParseEvent(t *testing.T) {
	t.Run("ChargeSuccess", func(t *testing.T) {
		ev, err := gateway.ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"CTS_1","amount":500000,"customer":{"email":"a@ctspark.ng"}}}`))
		require.NoError(t, err)
		assert.Equal(t, gateway.EventChargeSuccess, ev.Kind)
		assert.Equal(t, "CTS_1", ev.Reference)
		assert.Equal(t, domain.Kobo(500000), ev.Amount)
		assert.Equal(t, "a@ctspark.ng", ev.CustomerEmail)
	})

	t.Run("ChargeFailed", func(t *testing.T) {
		ev, err := gateway.ParseEvent([]byte(`{"event":"charge.failed","data":{"reference":"CTS_2","gateway_response":"Declined"}}`))
		require.NoError(t, err)
		assert.Equal(t, gateway.EventChargeFailed, ev.Kind)
		assert.Equal(t, "Declined", ev.GatewayResponse)
	})

	t.Run("Unhandled", func(t *testing.T) {
		ev, err := gateway.ParseEvent([]byte(`{"event":"transfer.success","data":{}}`))
		require.NoError(t, err)
		assert.Equal(t, gateway.EventUnhandled, ev.Kind)
	})

	t.Run("MissingReference", func(t *testing.T) {
		_, err := gateway.ParseEvent([]byte(`{"event":"charge.success","data":{"amount":100}}`))
		assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := gateway.ParseEvent([]byte(`{"event":`))
		assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	})
}
