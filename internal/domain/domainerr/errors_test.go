package domainerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusTable(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindConflict:       http.StatusConflict,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		Kind("bogus"):      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), string(kind))
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict("email taken"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindValidation))
	assert.True(t, errors.Is(err, Of(KindConflict)))
	assert.False(t, errors.Is(err, Of(KindValidation)))
}

func TestSentinelsOfOneKindStayDistinct(t *testing.T) {
	userMissing := NotFound("user not found")
	credentialMissing := NotFound("credential not found")

	assert.False(t, errors.Is(credentialMissing, userMissing))
	assert.False(t, errors.Is(fmt.Errorf("lookup: %w", userMissing), credentialMissing))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", userMissing), userMissing))
	assert.True(t, errors.Is(credentialMissing, Of(KindNotFound)))
}

func TestPlainErrorsHaveNoKind(t *testing.T) {
	_, ok := KindOf(errors.New("db down"))
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("provider timeout")
	err := Wrap(KindAuthentication, "google sign-in failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "google sign-in failed", err.Error())
}
