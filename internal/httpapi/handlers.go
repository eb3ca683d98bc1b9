package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"deliverydesk/backend/internal/domain"
)

type statusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type quantityUpdateRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		var invoices []domain.Invoice
		switch {
		case query.Get("q") != "":
			invoices = a.service.SearchInvoices(query.Get("q"))
		case query.Get("status") != "":
			status, err := domain.ParseInvoiceStatus(query.Get("status"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			invoices = a.service.FilterInvoicesByStatus(status)
		case query.Get("driver_id") != "":
			invoices = a.service.FilterInvoicesByDriver(query.Get("driver_id"))
		default:
			invoices = a.service.Invoices()
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": sortRows(r, invoices)})
	case http.MethodPost:
		var req domain.InvoiceInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		invoice := a.service.AddInvoice(req)
		writeJSON(w, http.StatusCreated, map[string]any{"invoice": invoice})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/v1/invoices/")
	switch {
	case len(parts) == 1 && parts[0] == "recent":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 10, 100)
		writeJSON(w, http.StatusOK, map[string]any{"invoices": a.service.RecentInvoices(limit)})
	case len(parts) == 1 && parts[0] == "delayed":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": sortRows(r, a.service.DelayedInvoices())})
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		invoice, ok := a.service.GetInvoice(parts[0])
		if !ok {
			writeNotFound(w, "invoice", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
	case len(parts) == 2 && parts[1] == "status":
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w)
			return
		}
		a.updateInvoiceStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "archive":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		if !a.service.ArchiveInvoice(parts[0]) {
			writeNotFound(w, "invoice", parts[0])
			return
		}
		archived, _ := a.service.GetArchivedInvoice(parts[0])
		writeJSON(w, http.StatusOK, map[string]any{"invoice": archived})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown invoice action"))
	}
}

func (a *API) updateInvoiceStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := domain.ParseInvoiceStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ok, err := a.service.UpdateInvoiceStatus(id, status)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrInvalidStatus) {
			code = http.StatusBadRequest
		}
		writeError(w, code, err)
		return
	}
	if !ok {
		writeNotFound(w, "invoice", id)
		return
	}
	invoice, _ := a.service.GetInvoice(id)
	writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
}

func (a *API) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	var invoices []domain.Invoice
	if q := r.URL.Query().Get("q"); q != "" {
		invoices = a.service.SearchArchivedInvoices(q)
	} else {
		invoices = a.service.ArchivedInvoices()
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": sortRows(r, invoices)})
}

func (a *API) handleDrivers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"drivers": sortRows(r, a.service.Drivers())})
	case http.MethodPost:
		var req domain.DriverInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		driver := a.service.AddDriver(req)
		writeJSON(w, http.StatusCreated, map[string]any{"driver": driver})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleDriverActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	parts := pathParts(r, "/api/v1/drivers/")
	switch {
	case len(parts) == 1 && parts[0] == "summaries":
		writeJSON(w, http.StatusOK, map[string]any{"summaries": a.service.DriverSummaries()})
	case len(parts) == 1:
		driver, ok := a.service.GetDriver(parts[0])
		if !ok {
			writeNotFound(w, "driver", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"driver": driver})
	case len(parts) == 2 && parts[1] == "invoices":
		if _, ok := a.service.GetDriver(parts[0]); !ok {
			writeNotFound(w, "driver", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": sortRows(r, a.service.DriverInvoices(parts[0]))})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown driver action"))
	}
}

func (a *API) handleStock(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"stock": sortRows(r, a.service.Stock())})
	case http.MethodPost:
		var req domain.StockItemInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item := a.service.AddStockItem(req)
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleStockActions(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/v1/stock/")
	switch {
	case len(parts) == 1 && parts[0] == "low":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stock": sortRows(r, a.service.LowStockItems())})
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		item, ok := a.service.GetStockItem(parts[0])
		if !ok {
			writeNotFound(w, "stock item", parts[0])
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case len(parts) == 2 && parts[1] == "quantity":
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w)
			return
		}
		var req quantityUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !a.service.UpdateStockQuantity(parts[0], *req.Quantity) {
			writeNotFound(w, "stock item", parts[0])
			return
		}
		item, _ := a.service.GetStockItem(parts[0])
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown stock action"))
	}
}

func (a *API) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": a.service.Statistics()})
}

func (a *API) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"theme": a.service.Theme(r.Context())})
	case http.MethodPut:
		var req themeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.Theme = strings.ToLower(strings.TrimSpace(req.Theme))
		if err := a.validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.SetTheme(r.Context(), domain.Theme(req.Theme)); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"theme": req.Theme})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	theme, err := a.service.ToggleTheme(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": theme})
}
