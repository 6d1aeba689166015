package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/azafe/MyPhone-Backend/api/responses"
	"github.com/azafe/MyPhone-Backend/internal/catalog"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
)

type StockController struct {
	catalog *catalog.Service
}

func NewStockController(catalog *catalog.Service) *StockController {
	return &StockController{catalog: catalog}
}

// GetByIMEI handles GET /api/v1/stock/{imei}.
func (c *StockController) GetByIMEI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	imei := chi.URLParam(r, "imei")
	if imei == "" {
		responses.WriteError(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "imei is required"))
		return
	}

	unit, err := c.catalog.GetByIMEI(ctx, imei)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, unit)
}
