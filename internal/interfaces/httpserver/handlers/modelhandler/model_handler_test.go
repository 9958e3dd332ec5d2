package modelhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzlah101/t3-clone/internal/domain/model"
)

func TestListModels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/models", nil)

	NewModelHandler().ListModels(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Object string          `json:"object"`
		Data   []modelResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "list", body.Object)
	require.Len(t, body.Data, len(model.List()))

	defaults := 0
	for _, m := range body.Data {
		assert.NotEmpty(t, m.ID)
		assert.NotEmpty(t, m.Provider)
		assert.Equal(t, "model", m.Object)
		if m.Default {
			defaults++
			assert.Equal(t, model.DefaultModelID, m.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}
