// ABOUTME: Tests for the error taxonomy and its classification predicates.
// ABOUTME: Covers wrapping, unwrapping, and kind extraction through error chains.

package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, KindConnectionExhausted, "flight search failed")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConnectionExhausted(err))
	assert.Contains(t, err.Error(), "flight search failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWrap_NilCause(t *testing.T) {
	var got error
	if e := Wrap(nil, KindNotFound, "nope"); e != nil {
		got = e
	}
	assert.NoError(t, got)
}

func TestWrap_AlreadyClassified(t *testing.T) {
	inner := New(KindNotFound, "hotel not found")
	outer := Wrap(inner, KindRequestRejected, "lookup failed")

	// Original classification wins over a second wrap.
	assert.True(t, IsNotFound(outer))
	assert.False(t, IsRequestRejected(outer))
}

func TestKindOf_ThroughChain(t *testing.T) {
	err := fmt.Errorf("handling turn: %w", New(KindUnclassified, "no intent"))
	assert.Equal(t, KindUnclassified, KindOf(err))
	assert.True(t, IsUnclassified(err))
}

func TestKindOf_Unwrapped(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestWithStatus(t *testing.T) {
	err := New(KindRequestRejected, "bad request").WithStatus(400)
	assert.Equal(t, 400, err.Status)
}
