package models

// MedicineCategory groups medicines for browsing (e.g. "Pain Relief").
type MedicineCategory struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`

	Medicines []Medicine `gorm:"foreignKey:CategoryID" json:"-"`
}

// Medicine is a catalog entry in the portal pharmacy.
type Medicine struct {
	BaseModel
	CategoryID   string  `gorm:"size:36;index" json:"categoryId"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Manufacturer string  `gorm:"size:255" json:"manufacturer"`
	Price        float64 `gorm:"not null" json:"price"`
	Stock        int     `gorm:"default:0" json:"stock"`

	Category MedicineCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

// OrderStatus represents the status of a medicine order
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// MedicineOrder is a patient's or student's pharmacy order.
type MedicineOrder struct {
	BaseModel
	UserID          string      `gorm:"size:36;index" json:"userId"`
	Status          OrderStatus `gorm:"size:20;default:'placed'" json:"status"`
	TotalAmount     float64     `json:"totalAmount"`
	DeliveryAddress string      `gorm:"size:255" json:"deliveryAddress"`

	User  User                `gorm:"foreignKey:UserID" json:"-"`
	Items []MedicineOrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// MedicineOrderItem is one line of an order. UnitPrice is captured at order
// time so later catalog price changes do not rewrite order history.
type MedicineOrderItem struct {
	BaseModel
	OrderID    string  `gorm:"size:36;index" json:"orderId"`
	MedicineID string  `gorm:"size:36;index" json:"medicineId"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	UnitPrice  float64 `gorm:"not null" json:"unitPrice"`

	Medicine Medicine `gorm:"foreignKey:MedicineID" json:"-"`
}
