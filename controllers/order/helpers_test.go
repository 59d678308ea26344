package orderControllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	orderControllers "github.com/SyafiqMSI/minimal-commerce/controllers/order"
	"github.com/SyafiqMSI/minimal-commerce/middleware"
	"github.com/SyafiqMSI/minimal-commerce/models"
)

func setupOrderTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	require.NoError(t, err)

	r := gin.New()
	r.Use(gin.Recovery())

	// Stand-in for the JWT middleware: identity comes from test headers.
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Set("user_id", uint(id))
		}
		if v := c.GetHeader("X-Test-Role"); v != "" {
			c.Set("role", v)
		}
	})

	orders := r.Group("/orders")
	{
		orders.POST("", orderControllers.CheckoutHandler(db))
		orders.GET("", orderControllers.GetUserOrdersHandler(db))
		orders.GET("/:orderID", orderControllers.GetOrderHandler(db))
		orders.POST("/:orderID/pay", orderControllers.PayOrderHandler(db))
		orders.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db))
	}

	admin := r.Group("/admin/orders")
	admin.Use(middleware.RequireAdmin)
	{
		admin.GET("", orderControllers.AdminGetOrdersHandler(db))
		admin.PUT("/:orderID/status", orderControllers.AdminUpdateStatusHandler(db))
	}

	return r, db
}

func performRequest(r *gin.Engine, method, path string, body interface{}, userID uint, role string) *httptest.ResponseRecorder {
	var buf []byte
	if body != nil {
		buf, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(buf))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(int(userID)))
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	user := models.User{Name: "Test User", Email: email, Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, quantity int) models.Product {
	product := models.Product{Name: name, Price: decimal.NewFromInt(price), Quantity: quantity}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedCartWithItems(t *testing.T, db *gorm.DB, userID uint, lines map[uint]int) (models.Cart, map[uint]models.CartItem) {
	cart := models.Cart{UserID: userID}
	require.NoError(t, db.Create(&cart).Error)

	items := make(map[uint]models.CartItem, len(lines))
	for productID, quantity := range lines {
		item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		require.NoError(t, db.Create(&item).Error)
		items[productID] = item
	}
	return cart, items
}

func productQuantity(t *testing.T, db *gorm.DB, productID uint) int {
	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	return product.Quantity
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func validCheckoutBody() map[string]interface{} {
	return map[string]interface{}{
		"shipping_name":    "Budi Santoso",
		"shipping_phone":   "081234567890",
		"shipping_address": "Jl. Merdeka No. 1, Jakarta",
		"payment_method":   "bank_transfer",
	}
}

type orderResponse struct {
	Message string       `json:"message"`
	Data    models.Order `json:"data"`
}

func decodeOrderResponse(t *testing.T, w *httptest.ResponseRecorder) orderResponse {
	var resp orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func responseMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}
