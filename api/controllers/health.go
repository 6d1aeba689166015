package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/azafe/MyPhone-Backend/api/responses"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
)

type HealthController struct {
	client *db.Client
}

func NewHealthController(client *db.Client) *HealthController {
	return &HealthController{client: client}
}

// Check handles GET /healthz.
func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx); err != nil {
		responses.WriteError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
		return
	}
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}
