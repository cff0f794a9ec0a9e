package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("name too short")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("node %s not found", "x")))
	assert.Equal(t, KindConflict, KindOf(Conflict("root already exists")))
	assert.Equal(t, KindCycle, KindOf(Cycle("destination is a descendant")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("move failed: %w", Cycle("destination is a descendant"))
	assert.Equal(t, KindCycle, KindOf(err))
	assert.True(t, IsKind(err, KindCycle))
}

func TestCauseIsUnwrappable(t *testing.T) {
	cause := errors.New("db down")
	err := Conflict("insert failed: %v", cause)
	assert.Contains(t, err.Error(), "db down")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("missing")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("dup")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Cycle("loop")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
