package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(KindConflict, "SAMPLE", "sample conflict")

func TestWithFields_KeepsSentinelIdentity(t *testing.T) {
	err := WithFields(errSample, "employee_id", "emp-1", "date", "2024-03-01")

	assert.True(t, errors.Is(err, errSample))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "SAMPLE", CodeOf(err))
	assert.Equal(t, map[string]string{"employee_id": "emp-1", "date": "2024-03-01"}, FieldsOf(err))
	assert.Equal(t, "sample conflict (date=2024-03-01, employee_id=emp-1)", err.Error())

	// the sentinel itself is untouched
	assert.Empty(t, errSample.Fields)
}

func TestWithFields_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("failed to settle: %w", errSample)
	err := WithFields(wrapped, "request_id", "ot-1")

	assert.True(t, errors.Is(err, errSample))
	assert.Equal(t, "ot-1", FieldsOf(err)["request_id"])
}

func TestWithFields_PlainError(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, WithFields(plain, "k", "v"))
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Nil(t, FieldsOf(plain))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, KindInternal, "DB", "database unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "database unavailable: connection reset", err.Error())
	assert.Nil(t, Wrap(nil, KindInternal, "DB", "database unavailable"))
}

func TestIs_DifferentCodes(t *testing.T) {
	other := New(KindConflict, "OTHER", "other conflict")
	assert.False(t, errors.Is(errSample, other))
}
