package serverutils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"virtual-doctor-be/internal/service"
	"virtual-doctor-be/pkg/intake"
	"virtual-doctor-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid request", err: fmt.Errorf("%w: text is required", service.ErrInvalidRequest), want: http.StatusBadRequest},
		{name: "unknown session lookup", err: service.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "session vanished mid-turn", err: session.ErrNotFound, want: http.StatusInternalServerError},
		{name: "concurrent update", err: session.ErrConcurrentUpdate, want: http.StatusConflict},
		{name: "upstream exhausted", err: fmt.Errorf("%w: gave up", intake.ErrUpstreamExhausted), want: http.StatusInternalServerError},
		{name: "malformed reply", err: intake.ErrMalformedResponse, want: http.StatusInternalServerError},
		{name: "rate limited", err: ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "fiber error", err: fiber.NewError(http.StatusUnauthorized, "invalid token"), want: http.StatusUnauthorized},
		{name: "unexpected", err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := StatusFor(tt.err)
			assert.Equal(t, tt.want, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestStatusForHidesInternalDetails(t *testing.T) {
	_, msg := StatusFor(fmt.Errorf("save session s1: %w", session.ErrNotFound))

	assert.NotContains(t, msg, "s1")
	assert.Equal(t, "failed to process message", msg)
}
