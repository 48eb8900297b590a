package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"clinic-portal-server/internal/models"
)

// newMockDB opens a gorm handle over a sqlmock connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func newMedicineRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMedicineHandler(db)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "patient-1")
		c.Set("userRole", models.RolePatient)
	})
	router.POST("/api/v1/medicines/orders", h.PlaceOrder)
	return router
}

func medicineRows(stock int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "category_id", "name",
		"description", "manufacturer", "price", "stock",
	}).AddRow("med-1", now, now, "cat-1", "Paracetamol", "", "", 5.0, stock)
}

func TestPlaceOrder_StockGuardInsideUpdate(t *testing.T) {
	// The decrement must be conditional in the UPDATE itself: when zero rows
	// match (another order took the stock first), the order is rejected and
	// rolled back instead of overwriting the earlier decrement.
	db, mock := newMockDB(t)
	router := newMedicineRouter(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `medicines`").WillReturnRows(medicineRows(1))
	mock.ExpectExec("UPDATE `medicines` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := doRequest(router, http.MethodPost, "/api/v1/medicines/orders",
		`{"items":[{"medicineId":"med-1","quantity":2}],"deliveryAddress":"Dorm 4"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient stock for Paracetamol")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_UnknownMedicineReturns400(t *testing.T) {
	db, mock := newMockDB(t)
	router := newMedicineRouter(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `medicines`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	w := doRequest(router, http.MethodPost, "/api/v1/medicines/orders",
		`{"items":[{"medicineId":"nope","quantity":1}],"deliveryAddress":"Dorm 4"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_PersistenceFailureReturns500(t *testing.T) {
	db, mock := newMockDB(t)
	router := newMedicineRouter(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `medicines`").WillReturnRows(medicineRows(10))
	mock.ExpectExec("UPDATE `medicines` SET").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	w := doRequest(router, http.MethodPost, "/api/v1/medicines/orders",
		`{"items":[{"medicineId":"med-1","quantity":1}],"deliveryAddress":"Dorm 4"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
