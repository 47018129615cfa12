package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

// ModelHandler handles model listing requests.
type ModelHandler struct {
	listModelsUC *usecase.ListModelsUsecase
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(listModelsUC *usecase.ListModelsUsecase) *ModelHandler {
	return &ModelHandler{listModelsUC: listModelsUC}
}

// List handles GET /api/v1/models
func (h *ModelHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models": h.listModelsUC.Execute(),
	})
}
