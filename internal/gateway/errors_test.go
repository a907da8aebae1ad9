package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorClassification(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		status    int
		retryable bool
	}{
		{KindTimeout, 0, true},
		{KindTransport, 0, true},
		{KindUnexpectedStatus, 503, true},
		{KindUnexpectedStatus, 403, false},
		{KindBadPayload, 200, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.kind, tt.status), func(t *testing.T) {
			err := NewError("op", tt.kind, tt.status, nil)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	underlying := context.DeadlineExceeded
	wrapped := fmt.Errorf("poll: %w", NewError(OpPollLookupResult, KindTimeout, 0, underlying))

	assert.Equal(t, KindTimeout, KindOf(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)

	plain := errors.New("boom")
	assert.Equal(t, ErrorKind(""), KindOf(plain))
	assert.False(t, IsRetryable(plain))
}

func TestErrorMessageOmitsDetail(t *testing.T) {
	err := NewError(OpVerifyCode, KindUnexpectedStatus, 500, errors.New("body: 123456"))
	assert.Equal(t, "gateway verifycode [unexpected_status]: status 500", err.Error())
}
