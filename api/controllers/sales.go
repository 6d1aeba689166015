package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/azafe/MyPhone-Backend/api/middleware"
	"github.com/azafe/MyPhone-Backend/api/responses"
	"github.com/azafe/MyPhone-Backend/api/validators"
	"github.com/azafe/MyPhone-Backend/internal/idempotency"
	"github.com/azafe/MyPhone-Backend/internal/sales"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/metrics"
	"github.com/azafe/MyPhone-Backend/pkg/types"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	createSaleRoute      = "POST /api/v1/sales"
)

type SalesController struct {
	service *sales.Service
	idem    *idempotency.Coordinator
}

func NewSalesController(service *sales.Service, idem *idempotency.Coordinator) *SalesController {
	return &SalesController{service: service, idem: idem}
}

// Create handles POST /api/v1/sales. With an Idempotency-Key header,
// retries replay the stored response instead of re-executing.
func (c *SalesController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}

	var req createSaleRequest
	if err := validators.DecodeJSON(body, &req); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	in, err := req.toInput(actorID)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		sale, err := c.service.Create(ctx, in)
		if err != nil {
			responses.WriteError(ctx, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
		return
	}

	outcome, err := c.idem.Begin(ctx, actorID, createSaleRoute, key, body)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	switch outcome.State {
	case idempotency.StateReplay:
		metrics.IdempotencyReplays.Inc()
		responses.WriteRaw(w, outcome.Record.ResponseStatus, outcome.Record.ResponseBody)
		return
	case idempotency.StateConflict:
		responses.WriteError(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency,
			"idempotency key was already used with a different payload"))
		return
	case idempotency.StateInProgress:
		responses.WriteError(ctx, w, pkgerrors.New(pkgerrors.CodeInProgress,
			"a request with this idempotency key is still running"))
		return
	}

	sale, err := c.service.Create(ctx, in)
	if err != nil {
		// Release the key so the client can retry after fixing the
		// request.
		_ = c.idem.Abandon(ctx, outcome.Record.ID)
		responses.WriteError(ctx, w, err)
		return
	}

	stored, err := json.Marshal(types.SuccessEnvelope{Data: sale})
	if err != nil {
		responses.WriteError(ctx, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode response"))
		return
	}
	if err := c.idem.Complete(ctx, outcome.Record.ID, http.StatusCreated, stored); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteRaw(w, http.StatusCreated, stored)
}

// List handles GET /api/v1/sales with cursor pagination.
func (c *SalesController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := sales.ListParams{
		Status: enums.SaleStatus(r.URL.Query().Get("status")),
	}
	params.Cursor = r.URL.Query().Get("cursor")
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			responses.WriteError(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer"))
			return
		}
		params.Limit = limit
	}

	result, err := c.service.List(ctx, params)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

// Get handles GET /api/v1/sales/{saleId}.
func (c *SalesController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID, err := saleIDParam(r)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	sale, err := c.service.Get(ctx, saleID)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, sale)
}

// Update handles PATCH /api/v1/sales/{saleId}.
func (c *SalesController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID, err := saleIDParam(r)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	var req updateSaleRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	in, err := req.toInput(middleware.ActorFromContext(ctx))
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	sale, err := c.service.Update(ctx, saleID, in)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, sale)
}

// Cancel handles POST /api/v1/sales/{saleId}/cancel.
func (c *SalesController) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID, err := saleIDParam(r)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	var req cancelSaleRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	sale, err := c.service.Cancel(ctx, saleID, sales.CancelInput{
		ActorID: middleware.ActorFromContext(ctx),
		Reason:  req.Reason,
	})
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, sale)
}

// RegisterPayments handles POST /api/v1/sales/{saleId}/payments.
func (c *SalesController) RegisterPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID, err := saleIDParam(r)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	var req registerPaymentsRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	entries, err := toEntryInputs(req.Payments)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	sale, err := c.service.RegisterPayments(ctx, saleID, sales.PaymentInput{
		ActorID: middleware.ActorFromContext(ctx),
		Entries: entries,
	})
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, sale)
}

// Settle handles POST /api/v1/sales/{saleId}/settle. The amount is
// never taken from the request; whatever balance remains is cleared.
func (c *SalesController) Settle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID, err := saleIDParam(r)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	var req settleSaleRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	fx, err := parseOptionalAmount("fx_rate", req.FxRate)
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}

	sale, err := c.service.Settle(ctx, saleID, sales.SettleInput{
		ActorID:  middleware.ActorFromContext(ctx),
		Method:   enums.PaymentMethod(req.Method),
		Currency: enums.Currency(req.Currency),
		FxRate:   fx,
		Note:     req.Note,
	})
	if err != nil {
		responses.WriteError(ctx, w, err)
		return
	}
	responses.WriteSuccess(w, sale)
}

func saleIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "saleId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "saleId must be a uuid").
			WithDetails(map[string]string{"saleId": raw})
	}
	return id, nil
}
