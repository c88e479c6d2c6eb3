package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsSurvivesWrappingAndDetails(t *testing.T) {
	wrapped := fmt.Errorf("debit: %w", ErrInsufficientCredits)
	assert.True(t, errors.Is(wrapped, ErrInsufficientCredits))

	withDetails := ErrInsufficientCredits.WithDetails(map[string]int{"balance": 0})
	assert.True(t, errors.Is(withDetails, ErrInsufficientCredits))
	assert.Nil(t, ErrInsufficientCredits.Details, "общая переменная не должна мутировать")

	assert.False(t, errors.Is(ErrTransactionNotFound, ErrPropertyNotFound))
}

func TestHandleError_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleError(c, ErrInsufficientCredits)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INSUFFICIENT_CREDITS", body["error"]["code"])
	assert.Equal(t, "credits", body["error"]["domain"])
}

func TestHandleError_PlainErrorBecomesInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleError(c, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
