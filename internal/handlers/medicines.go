package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/utils"
)

// MedicineHandler handles the portal pharmacy: category/catalog browsing and
// ordering.
type MedicineHandler struct {
	DB *gorm.DB
}

// NewMedicineHandler creates a new MedicineHandler.
func NewMedicineHandler(db *gorm.DB) *MedicineHandler {
	return &MedicineHandler{DB: db}
}

// GetCategories lists all medicine categories.
func (h *MedicineHandler) GetCategories(c *gin.Context) {
	var categories []models.MedicineCategory
	if err := h.DB.Order("name asc").Find(&categories).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch categories: "+err.Error())
		return
	}
	utils.Success(c, "Categories fetched successfully", categories)
}

// CreateCategoryRequest represents the request body for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCategory creates a medicine category (admin).
func (h *MedicineHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	category := models.MedicineCategory{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&category).Error; err != nil {
		utils.InternalServerError(c, "Failed to create category: "+err.Error())
		return
	}

	utils.Created(c, "Category created successfully", category)
}

// GetMedicines lists medicines, optionally filtered by ?category= (category ID)
// and ?search= (name substring).
func (h *MedicineHandler) GetMedicines(c *gin.Context) {
	query := h.DB.Order("name asc")
	if categoryID := c.Query("category"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var medicines []models.Medicine
	if err := query.Find(&medicines).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch medicines: "+err.Error())
		return
	}

	utils.Success(c, "Medicines fetched successfully", medicines)
}

// CreateMedicineRequest represents the request body for adding a catalog entry.
type CreateMedicineRequest struct {
	CategoryID   string  `json:"categoryId" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Stock        int     `json:"stock" binding:"gte=0"`
}

// CreateMedicine adds a medicine to the catalog (admin).
func (h *MedicineHandler) CreateMedicine(c *gin.Context) {
	var req CreateMedicineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var category models.MedicineCategory
	if err := h.DB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Category not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	medicine := models.Medicine{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		Price:        req.Price,
		Stock:        req.Stock,
	}
	if err := h.DB.Create(&medicine).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medicine: "+err.Error())
		return
	}

	utils.Created(c, "Medicine created successfully", medicine)
}

// UpdateMedicineRequest represents the request body for updating a catalog entry.
type UpdateMedicineRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Manufacturer string   `json:"manufacturer"`
	Price        *float64 `json:"price"`
	Stock        *int     `json:"stock"`
}

// UpdateMedicine updates a catalog entry (admin).
func (h *MedicineHandler) UpdateMedicine(c *gin.Context) {
	medicineID := c.Param("id")

	var req UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var medicine models.Medicine
	if err := h.DB.First(&medicine, "id = ?", medicineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medicine not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Name != "" {
		medicine.Name = req.Name
	}
	if req.Description != "" {
		medicine.Description = req.Description
	}
	if req.Manufacturer != "" {
		medicine.Manufacturer = req.Manufacturer
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.BadRequest(c, "Price must be greater than zero")
			return
		}
		medicine.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			utils.BadRequest(c, "Stock must not be negative")
			return
		}
		medicine.Stock = *req.Stock
	}

	if err := h.DB.Save(&medicine).Error; err != nil {
		utils.InternalServerError(c, "Failed to update medicine: "+err.Error())
		return
	}

	utils.Success(c, "Medicine updated successfully", medicine)
}

// orderError marks an order rejection the client can correct (unknown
// medicine, insufficient stock), as opposed to a persistence failure.
type orderError struct {
	msg string
}

func (e *orderError) Error() string { return e.msg }

// OrderItemRequest is one line of an order request.
type OrderItemRequest struct {
	MedicineID string `json:"medicineId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest represents the request body for placing a medicine order.
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string             `json:"deliveryAddress" binding:"required"`
}

// PlaceOrder creates an order for the authenticated user. Each item's stock is
// taken with a conditional decrement inside the order transaction, so
// concurrent orders for the same medicine cannot oversell.
func (h *MedicineHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var order models.MedicineOrder
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		order = models.MedicineOrder{
			UserID:          userID,
			Status:          models.OrderPlaced,
			DeliveryAddress: req.DeliveryAddress,
		}

		var total float64
		var items []models.MedicineOrderItem
		for _, item := range req.Items {
			var medicine models.Medicine
			if err := tx.First(&medicine, "id = ?", item.MedicineID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &orderError{msg: fmt.Sprintf("medicine %s not found", item.MedicineID)}
				}
				return err
			}

			// Atomic conditional decrement: the stock guard lives in the
			// UPDATE itself, so two concurrent orders for the last units
			// cannot both pass a stale read
			result := tx.Model(&medicine).
				Where("stock >= ?", item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &orderError{msg: "insufficient stock for " + medicine.Name}
			}

			total += medicine.Price * float64(item.Quantity)
			items = append(items, models.MedicineOrderItem{
				MedicineID: item.MedicineID,
				Quantity:   item.Quantity,
				UnitPrice:  medicine.Price,
			})
		}

		order.TotalAmount = total
		order.Items = items
		return tx.Create(&order).Error
	})
	if err != nil {
		var oerr *orderError
		if errors.As(err, &oerr) {
			utils.BadRequest(c, "Failed to place order: "+oerr.Error())
		} else {
			utils.InternalServerError(c, "Failed to place order: "+err.Error())
		}
		return
	}

	utils.Created(c, "Order placed successfully", order)
}

// GetOrders lists the authenticated user's orders; admins see all orders.
func (h *MedicineHandler) GetOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Items").Order("created_at desc")
	if userRole != models.RoleAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var orders []models.MedicineOrder
	if err := query.Find(&orders).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch orders: "+err.Error())
		return
	}

	utils.Success(c, "Orders fetched successfully", orders)
}
