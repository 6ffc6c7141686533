package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/fieldopsgo/internal/middleware"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

func pathID(req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	return id, err == nil && id > 0
}

// shortageView is a master with its supplier lines joined in.
type shortageView struct {
	models.OutOfStockMaster
	LocalID int64                   `json:"local_id"`
	Lines   []models.OutOfStockLine `json:"lines"`
}

// listShortages returns shortage reports with their lines. Suppliers only
// see lines assigned to them; other roles see everything.
func (r *Router) listShortages(w http.ResponseWriter, req *http.Request) {
	q := r.db.DB.Order("reported_date DESC")
	if status := req.URL.Query().Get("status"); status != "" {
		code, err := strconv.Atoi(status)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		q = q.Where("status = ?", code)
	}
	var masters []models.OutOfStockMaster
	if err := q.Find(&masters).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "could not load shortages")
		return
	}

	role := middleware.RoleOf(req)
	userID := middleware.UserIDOf(req)

	views := make([]shortageView, 0, len(masters))
	for _, master := range masters {
		view := shortageView{OutOfStockMaster: master, LocalID: master.LocalID}
		lineQ := r.db.DB.Where("master_id = ?", master.ServerID)
		if role == models.RoleSupplier {
			lineQ = lineQ.Where("assigned_supplier_id = ?", userID)
		}
		if err := lineQ.Find(&view.Lines).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "could not load shortage lines")
			return
		}
		if role == models.RoleSupplier && len(view.Lines) == 0 {
			continue
		}
		views = append(views, view)
	}
	respondJSON(w, http.StatusOK, views)
}

// ReportShortageRequest opens a new shortage report.
type ReportShortageRequest struct {
	OrderLineID  int64   `json:"order_line_id"`
	ProductID    int64   `json:"product_id"`
	RequestedQty float64 `json:"requested_qty"`
}

func (r *Router) reportShortage(w http.ResponseWriter, req *http.Request) {
	var body ReportShortageRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.OrderLineID == 0 {
		body.OrderLineID = models.ServerKeyUnassigned
	}
	masterID, err := r.wf.ReportShortage(body.OrderLineID, body.ProductID, body.RequestedQty, middleware.UserIDOf(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"local_id": masterID})
}

func (r *Router) markViewed(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid shortage id")
		return
	}
	if err := r.wf.MarkViewed(id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "viewed"})
}

func (r *Router) addLine(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid shortage id")
		return
	}
	lineID, err := r.wf.AddLine(id, middleware.RoleOf(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"local_id": lineID})
}

func (r *Router) completeShortage(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid shortage id")
		return
	}
	if err := r.wf.Complete(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// AssignSupplierRequest points a line at a supplier.
type AssignSupplierRequest struct {
	SupplierID int64 `json:"supplier_id"`
}

func (r *Router) assignSupplier(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	var body AssignSupplierRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := r.wf.AssignSupplier(id, body.SupplierID, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (r *Router) sendToSupplier(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.SendToSupplier(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// SupplierResponseRequest is the supplier's answer to a shortage line.
type SupplierResponseRequest struct {
	Available    bool    `json:"available"`
	AvailableQty float64 `json:"available_qty"`
}

func (r *Router) supplierRespond(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	var body SupplierResponseRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := r.wf.SupplierRespond(id, middleware.RoleOf(req), body.Available, body.AvailableQty); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (r *Router) adminAccept(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.AdminAccept(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (r *Router) adminReject(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.AdminReject(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (r *Router) markNotAvailable(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.AdminMarkNotAvailable(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "not available"})
}

func (r *Router) cancelLine(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.CancelLine(id, middleware.RoleOf(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// PackRequest records a packed quantity for a line.
type PackRequest struct {
	PackedQty float64 `json:"packed_qty"`
}

func (r *Router) pack(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	var body PackRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := r.wf.Pack(id, middleware.UserIDOf(req), body.PackedQty); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "packed"})
}

func (r *Router) unpack(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := r.wf.Unpack(id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unpacked"})
}
