package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration},
		{"ErrTransient", ErrTransient},
		{"ErrThrottled", ErrThrottled},
		{"ErrEmptyCorpus", ErrEmptyCorpus},
		{"ErrDuplicateID", ErrDuplicateID},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrorForStatus(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusOK, nil},
		{http.StatusTooManyRequests, ErrThrottled},
		{http.StatusUnauthorized, ErrInvalidConfiguration},
		{http.StatusForbidden, ErrInvalidConfiguration},
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusNotFound, ErrInvalidInput},
		{http.StatusRequestEntityTooLarge, ErrInvalidInput},
		{http.StatusRequestTimeout, ErrTransient},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
		{http.StatusServiceUnavailable, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorForStatus(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTransient))
	assert.True(t, IsRetryable(fmt.Errorf("embed: %w", ErrThrottled)))
	assert.False(t, IsRetryable(ErrInvalidInput))
	assert.False(t, IsRetryable(ErrInvalidConfiguration))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(nil))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("chat: %w", ErrTransient), "transient"},
		{fmt.Errorf("chat: %w", ErrThrottled), "throttled"},
		{ErrInvalidInput, "invalid_input"},
		{ErrInvalidConfiguration, "invalid_configuration"},
		{ErrEmptyCorpus, "empty_corpus"},
		{ErrDuplicateID, "duplicate_id"},
		{ErrNotFound, "not_found"},
		{ErrLLMUnavailable, "unavailable"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}
