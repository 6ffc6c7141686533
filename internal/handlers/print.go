package handlers

import (
	"fmt"
	"net/http"

	"github.com/xelth-com/fieldopsgo/internal/models"
	"github.com/xelth-com/fieldopsgo/internal/services/printer"
)

// packingSlip renders the packing slip PDF for one shortage report.
func (r *Router) packingSlip(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid shortage id")
		return
	}

	var master models.OutOfStockMaster
	if err := r.db.DB.First(&master, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "shortage not found")
		return
	}
	var lines []models.OutOfStockLine
	if err := r.db.DB.Where("master_id = ?", master.ServerID).Find(&lines).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "could not load shortage lines")
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusBadRequest, "shortage has no lines to pack")
		return
	}

	slip := printer.Slip{
		MasterID:     master.LocalID,
		ReportedDate: master.ReportedDate,
	}

	var product models.Product
	productName := fmt.Sprintf("product #%d", master.ProductID)
	if err := r.db.DB.Where("server_id = ?", master.ProductID).First(&product).Error; err == nil {
		productName = product.Name
	}

	if master.OrderLineID != models.ServerKeyUnassigned {
		var orderLine models.OrderLine
		if err := r.db.DB.Where("server_id = ?", master.OrderLineID).First(&orderLine).Error; err == nil {
			var order models.Order
			if err := r.db.DB.Where("server_id = ?", orderLine.OrderID).First(&order).Error; err == nil {
				slip.OrderNumber = order.OrderNumber
				var customer models.Customer
				if err := r.db.DB.Where("server_id = ?", order.CustomerID).First(&customer).Error; err == nil {
					slip.CustomerName = customer.Name
				}
			}
		}
	}

	lineIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.ServerID)
	}
	packed, err := r.wf.PackedEntries(lineIDs)
	if err != nil {
		respondAppError(w, err)
		return
	}

	for _, line := range lines {
		supplierName := "unassigned"
		if line.AssignedSupplierID != models.ServerKeyUnassigned {
			var supplier models.UserAccount
			if err := r.db.DB.Where("server_id = ?", line.AssignedSupplierID).First(&supplier).Error; err == nil {
				supplierName = supplier.Name
			}
		}
		_, isPacked := packed[line.ServerID]
		slip.Lines = append(slip.Lines, printer.SlipLine{
			LineID:       line.ServerID,
			ProductName:  productName,
			SupplierName: supplierName,
			RequestedQty: master.RequestedQty,
			AvailableQty: line.AvailableQty,
			Packed:       isPacked,
		})
	}

	pdf, err := printer.GeneratePackingSlip(slip)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not render packing slip")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=packing-slip-%d.pdf", master.LocalID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
