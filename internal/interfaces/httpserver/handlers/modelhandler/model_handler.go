package modelhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/domain/model"
)

// ModelHandler serves the static model catalog.
type ModelHandler struct{}

func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

type modelResponse struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Provider       string  `json:"provider"`
	SupportsSearch bool    `json:"supports_search"`
	SupportsImages bool    `json:"supports_images"`
	SupportsPDF    bool    `json:"supports_pdf"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
	Default        bool    `json:"default"`
}

// ListModels handles GET /v1/models.
func (h *ModelHandler) ListModels(c *gin.Context) {
	catalog := model.List()
	data := make([]modelResponse, 0, len(catalog))
	for _, m := range catalog {
		data = append(data, modelResponse{
			ID:             m.ID,
			Object:         "model",
			Name:           m.Name,
			Description:    m.Description,
			Provider:       m.Provider,
			SupportsSearch: m.SupportsSearch,
			SupportsImages: m.SupportsImages,
			SupportsPDF:    m.SupportsPDF,
			MaxTokens:      m.MaxTokens,
			Temperature:    m.Temperature,
			Default:        m.ID == model.DefaultModelID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}
