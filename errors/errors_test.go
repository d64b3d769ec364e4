package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorError_Error(t *testing.T) {
	err := ErrSingletonAlreadyRegistered("db")
	assert.Equal(t, "singleton 'db' is already registered", err.Error())

	cause := errors.New("connection refused")
	wrapped := ErrCreationFailed("db", cause)
	assert.Equal(t, "creation of singleton 'db' failed: connection refused", wrapped.Error())
}

func TestAnchorError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrCreationFailed("db", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Nil(t, errors.Unwrap(ErrAliasNotFound("db")))
}

func TestAnchorError_IsMatchesByCode(t *testing.T) {
	err := ErrCircularReference("service", "svc")

	// Context values differ, codes match
	assert.ErrorIs(t, err, ErrCircularReference("other", "alias"))
	assert.NotErrorIs(t, err, ErrAliasNotFound("svc"))
	assert.NotErrorIs(t, err, errors.New("plain"))
}

func TestAnchorError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolving: %w", ErrCurrentlyInCreation("db"))

	assert.ErrorIs(t, err, ErrCurrentlyInCreation(""))
}

func TestAnchorError_WithContext(t *testing.T) {
	err := ErrInconsistentState("registry state diverged").
		WithContext("name", "db").
		WithContext("phase", "creation")

	assert.Equal(t, "db", err.Context["name"])
	assert.Equal(t, "creation", err.Context["phase"])
}

func TestAnchorError_RelatedCauses(t *testing.T) {
	first := errors.New("first attempt failed")
	second := errors.New("second attempt failed")

	err := ErrCreationFailed("db", errors.New("boom"))
	err.AddRelated(first).AddRelated(nil).AddRelated(second)

	assert.Equal(t, []error{first, second}, err.RelatedCauses())
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrCreationNotAllowed("db"))

	assert.True(t, IsCode(err, CodeCreationNotAllowed))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeCreationNotAllowed))
	assert.False(t, IsCode(nil, CodeCreationNotAllowed))
}

func TestAsCode(t *testing.T) {
	inner := ErrCreationFailed("db", errors.New("boom")).AddRelated(errors.New("suppressed"))
	err := fmt.Errorf("outer: %w", inner)

	var extracted *AnchorError
	require.True(t, AsCode(err, CodeCreationFailed, &extracted))
	assert.Same(t, inner, extracted)
	assert.Len(t, extracted.RelatedCauses(), 1)

	var miss *AnchorError
	assert.False(t, AsCode(err, CodeNotFound, &miss))
	assert.Nil(t, miss)
}

func TestErrInvalidArgument(t *testing.T) {
	err := ErrInvalidArgument("name", "must not be empty")

	assert.Equal(t, CodeInvalidArgument, err.Code)
	assert.Equal(t, "invalid argument 'name': must not be empty", err.Error())
	assert.Equal(t, "name", err.Context["argument"])
	assert.False(t, err.Timestamp.IsZero())
}
