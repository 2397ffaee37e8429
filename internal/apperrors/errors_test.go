package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("Please fill in all fields"), http.StatusBadRequest},
		{"upload", UploadFailed("Image upload failed", errors.New("timeout")), http.StatusInternalServerError},
		{"not found", NotFound("Product not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("User not authorized"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("update: %w", NotFound("Product not found")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPublicMessageHidesUnknownErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, "Image upload failed", PublicMessage(UploadFailed("Image upload failed", errors.New("503"))))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("bucket missing")
	err := UploadFailed("Image upload failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindUploadFailed))
	assert.False(t, Is(err, KindNotFound))
	assert.Equal(t, "Image upload failed: bucket missing", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "not_found", KindOf(fmt.Errorf("get: %w", NotFound("Product not found"))).String())
	assert.Equal(t, "internal", KindOf(errors.New("boom")).String())
}
