package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline/warehouse-api/internal/types"
)

// stubFulfiller returns a canned outcome or error for handler tests.
type stubFulfiller struct {
	outcome Outcome
	err     error
}

func (s *stubFulfiller) Fulfill(_ context.Context, _ types.AllocationRequest) (Outcome, error) {
	return s.outcome, s.err
}

func newTestRouter(fulfiller Fulfiller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := NewGinHandlers(fulfiller, 5*time.Second)
	router.POST("/api/v1/allocations", handlers.FulfillHandler())
	return router
}

func postAllocation(t *testing.T, router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("POST", "/api/v1/allocations", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validRequestBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(types.AllocationRequest{
		ProductID:   3,
		WarehouseID: 1,
		Amount:      4,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)
	return body
}

func TestFulfillHandler_Created(t *testing.T) {
	fulfiller := &stubFulfiller{
		outcome: Outcome{Allocation: &types.Allocation{
			AllocationID: 42,
			WarehouseID:  1,
			ProductID:    3,
			OrderID:      7,
			Amount:       4,
			Price:        50.00,
			CreatedAt:    time.Now(),
		}},
	}
	router := newTestRouter(fulfiller)

	w := postAllocation(t, router, validRequestBody(t))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool                     `json:"success"`
		Data    types.AllocationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.EqualValues(t, 42, resp.Data.AllocationID)
	assert.Equal(t, 50.00, resp.Data.Price)
}

func TestFulfillHandler_RejectionsMapToConflict(t *testing.T) {
	reasons := []Reason{
		ReasonProductOrWarehouseInvalid,
		ReasonOrderNotFound,
		ReasonAlreadyAllocated,
		ReasonStaleTimestamp,
		ReasonNoMatchingOrder,
		ReasonInvalidProduct,
	}

	for _, reason := range reasons {
		t.Run(string(reason), func(t *testing.T) {
			router := newTestRouter(&stubFulfiller{outcome: Rejected(reason)})

			w := postAllocation(t, router, validRequestBody(t))
			require.Equal(t, http.StatusConflict, w.Code)

			var resp struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, string(reason), resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestFulfillHandler_MalformedBody(t *testing.T) {
	router := newTestRouter(&stubFulfiller{})

	w := postAllocation(t, router, []byte(`{"product_id": "not a number"`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFulfillHandler_MissingFields(t *testing.T) {
	router := newTestRouter(&stubFulfiller{})

	w := postAllocation(t, router, []byte(`{"warehouse_id": 1}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFulfillHandler_InfrastructureFailure(t *testing.T) {
	router := newTestRouter(&stubFulfiller{err: fmt.Errorf("commit fulfillment: %w", errors.New("disk I/O error"))})

	w := postAllocation(t, router, validRequestBody(t))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
