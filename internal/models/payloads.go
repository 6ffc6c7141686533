package models

// Partial payloads: the upstream API returns only the fields of a record
// that changed, so every download DTO is presence-tagged and merges into the
// existing local row without clobbering untouched fields. The local key is
// always kept from the existing row; it never travels on the wire.

// Payload is the shape shared by every download DTO.
type Payload[T any] interface {
	// Key returns the authoritative server key of the record.
	Key() int64
	// MergeInto applies the present fields onto the existing row.
	MergeInto(*T)
}

// UnitPayload is the download shape of a unit row.
type UnitPayload struct {
	ID   int64     `json:"id"`
	Name OptString `json:"unit_name"`
}

// MergeInto applies the present fields onto existing.
func (p UnitPayload) MergeInto(existing *Unit) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
}

// CategoryPayload is the download shape of a category row.
type CategoryPayload struct {
	ID   int64     `json:"id"`
	Name OptString `json:"category_name"`
}

func (p CategoryPayload) MergeInto(existing *Category) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
}

// BrandPayload is the download shape of a brand row.
type BrandPayload struct {
	ID   int64     `json:"id"`
	Name OptString `json:"brand_name"`
}

func (p BrandPayload) MergeInto(existing *Brand) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
}

// RoutePayload is the download shape of a sales route row.
type RoutePayload struct {
	ID   int64     `json:"id"`
	Name OptString `json:"route_name"`
	Area OptString `json:"area_name"`
}

func (p RoutePayload) MergeInto(existing *SalesRoute) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
	existing.Area = p.Area.Or(existing.Area)
}

// UserPayload is the download shape of a user account row.
type UserPayload struct {
	ID           int64     `json:"id"`
	Name         OptString `json:"name"`
	Username     OptString `json:"username"`
	PasswordHash OptString `json:"password"`
	Role         OptString `json:"user_role"`
	PhoneNo      OptString `json:"phone_no"`
	Email        OptString `json:"email"`
	RouteID      OptInt    `json:"route_id"`
	IsActive     OptInt    `json:"is_active"`
}

func (p UserPayload) MergeInto(existing *UserAccount) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
	existing.Username = p.Username.Or(existing.Username)
	existing.PasswordHash = p.PasswordHash.Or(existing.PasswordHash)
	if p.Role.Set {
		existing.Role = Role(p.Role.Value)
	}
	existing.PhoneNo = p.PhoneNo.Or(existing.PhoneNo)
	existing.Email = p.Email.Or(existing.Email)
	existing.RouteID = p.RouteID.Or(existing.RouteID)
	existing.IsActive = int(p.IsActive.Or(int64(existing.IsActive)))
}

// ProductPayload is the download shape of a product row.
type ProductPayload struct {
	ID            int64     `json:"id"`
	Name          OptString `json:"product_name"`
	Code          OptString `json:"product_code"`
	Barcode       OptString `json:"barcode"`
	UnitID        OptInt    `json:"unit_id"`
	CategoryID    OptInt    `json:"category_id"`
	BrandID       OptInt    `json:"brand_id"`
	SalePrice     OptFloat  `json:"sale_price"`
	PurchasePrice OptFloat  `json:"purchase_price"`
	StockQty      OptFloat  `json:"stock_qty"`
	IsActive      OptInt    `json:"is_active"`
}

func (p ProductPayload) MergeInto(existing *Product) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
	existing.Code = p.Code.Or(existing.Code)
	existing.Barcode = p.Barcode.Or(existing.Barcode)
	existing.UnitID = p.UnitID.Or(existing.UnitID)
	existing.CategoryID = p.CategoryID.Or(existing.CategoryID)
	existing.BrandID = p.BrandID.Or(existing.BrandID)
	existing.SalePrice = p.SalePrice.Or(existing.SalePrice)
	existing.PurchasePrice = p.PurchasePrice.Or(existing.PurchasePrice)
	existing.StockQty = p.StockQty.Or(existing.StockQty)
	existing.IsActive = int(p.IsActive.Or(int64(existing.IsActive)))
}

// CustomerPayload is the download shape of a customer row.
type CustomerPayload struct {
	ID       int64     `json:"id"`
	Name     OptString `json:"customer_name"`
	Address  OptString `json:"address"`
	PhoneNo  OptString `json:"phone_no"`
	Email    OptString `json:"email"`
	RouteID  OptInt    `json:"route_id"`
	Balance  OptFloat  `json:"balance"`
	IsActive OptInt    `json:"is_active"`
}

func (p CustomerPayload) MergeInto(existing *Customer) {
	existing.ServerID = p.ID
	existing.Name = p.Name.Or(existing.Name)
	existing.Address = p.Address.Or(existing.Address)
	existing.PhoneNo = p.PhoneNo.Or(existing.PhoneNo)
	existing.Email = p.Email.Or(existing.Email)
	existing.RouteID = p.RouteID.Or(existing.RouteID)
	existing.Balance = p.Balance.Or(existing.Balance)
	existing.IsActive = int(p.IsActive.Or(int64(existing.IsActive)))
}

// OrderPayload is the download shape of an order row.
type OrderPayload struct {
	ID          int64     `json:"id"`
	OrderNumber OptString `json:"order_no"`
	CustomerID  OptInt    `json:"customer_id"`
	SalesmanID  OptInt    `json:"salesman_id"`
	OrderDate   OptString `json:"order_date"`
	Status      OptString `json:"order_status"`
	TotalAmount OptFloat  `json:"total_amount"`
}

func (p OrderPayload) MergeInto(existing *Order) {
	existing.ServerID = p.ID
	existing.OrderNumber = p.OrderNumber.Or(existing.OrderNumber)
	existing.CustomerID = p.CustomerID.Or(existing.CustomerID)
	existing.SalesmanID = p.SalesmanID.Or(existing.SalesmanID)
	existing.OrderDate = p.OrderDate.Or(existing.OrderDate)
	if p.Status.Set {
		existing.Status = OrderStatus(p.Status.Value)
	}
	existing.TotalAmount = p.TotalAmount.Or(existing.TotalAmount)
}

// OrderLinePayload is the download shape of an order line row.
type OrderLinePayload struct {
	ID           int64    `json:"id"`
	OrderID      OptInt   `json:"order_id"`
	ProductID    OptInt   `json:"product_id"`
	Qty          OptFloat `json:"qty"`
	UnitPrice    OptFloat `json:"unit_price"`
	AvailableQty OptFloat `json:"available_qty"`
	IsChecked    OptInt   `json:"is_checked"`
}

func (p OrderLinePayload) MergeInto(existing *OrderLine) {
	existing.ServerID = p.ID
	existing.OrderID = p.OrderID.Or(existing.OrderID)
	existing.ProductID = p.ProductID.Or(existing.ProductID)
	existing.Qty = p.Qty.Or(existing.Qty)
	existing.UnitPrice = p.UnitPrice.Or(existing.UnitPrice)
	existing.AvailableQty = p.AvailableQty.Or(existing.AvailableQty)
	existing.IsChecked = int(p.IsChecked.Or(int64(existing.IsChecked)))
}

// OOSMasterPayload is the download shape of a shortage master row. Note that
// order_line_id and assigned_supplier_id legitimately carry -1 ("known
// absent"); only the -2 wire sentinel or a missing key keeps the local value.
type OOSMasterPayload struct {
	ID                 int64     `json:"id"`
	OrderLineID        OptInt    `json:"order_line_id"`
	ProductID          OptInt    `json:"product_id"`
	RequestedQty       OptFloat  `json:"requested_qty"`
	Status             OptInt    `json:"oos_status"`
	AssignedSupplierID OptInt    `json:"assigned_supplier_id"`
	ReportedBy         OptInt    `json:"reported_by"`
	IsViewed           OptInt    `json:"is_viewed"`
	ReportedDate       OptString `json:"reported_date"`
}

func (p OOSMasterPayload) MergeInto(existing *OutOfStockMaster) {
	existing.ServerID = p.ID
	existing.OrderLineID = p.OrderLineID.Or(existing.OrderLineID)
	existing.ProductID = p.ProductID.Or(existing.ProductID)
	existing.RequestedQty = p.RequestedQty.Or(existing.RequestedQty)
	existing.Status = int(p.Status.Or(int64(existing.Status)))
	existing.AssignedSupplierID = p.AssignedSupplierID.Or(existing.AssignedSupplierID)
	existing.ReportedBy = p.ReportedBy.Or(existing.ReportedBy)
	existing.IsViewed = int(p.IsViewed.Or(int64(existing.IsViewed)))
	existing.ReportedDate = p.ReportedDate.Or(existing.ReportedDate)
}

// OOSLinePayload is the download shape of a shortage line row.
type OOSLinePayload struct {
	ID                 int64    `json:"id"`
	MasterID           OptInt   `json:"oos_master_id"`
	AssignedSupplierID OptInt   `json:"assigned_supplier_id"`
	Status             OptInt   `json:"oos_status"`
	AvailableQty       OptFloat `json:"available_qty"`
	IsChecked          OptInt   `json:"is_checked"`
}

func (p OOSLinePayload) MergeInto(existing *OutOfStockLine) {
	existing.ServerID = p.ID
	existing.MasterID = p.MasterID.Or(existing.MasterID)
	existing.AssignedSupplierID = p.AssignedSupplierID.Or(existing.AssignedSupplierID)
	existing.Status = int(p.Status.Or(int64(existing.Status)))
	existing.AvailableQty = p.AvailableQty.Or(existing.AvailableQty)
	existing.IsChecked = int(p.IsChecked.Or(int64(existing.IsChecked)))
}

func (p UnitPayload) Key() int64      { return p.ID }
func (p CategoryPayload) Key() int64  { return p.ID }
func (p BrandPayload) Key() int64     { return p.ID }
func (p RoutePayload) Key() int64     { return p.ID }
func (p UserPayload) Key() int64      { return p.ID }
func (p ProductPayload) Key() int64   { return p.ID }
func (p CustomerPayload) Key() int64  { return p.ID }
func (p OrderPayload) Key() int64     { return p.ID }
func (p OrderLinePayload) Key() int64 { return p.ID }
func (p OOSMasterPayload) Key() int64 { return p.ID }
func (p OOSLinePayload) Key() int64   { return p.ID }
