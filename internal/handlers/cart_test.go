package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/cache"
	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
)

type cartFixture struct {
	router  *gin.Engine
	carts   *fakeCarts
	user    primitive.ObjectID
	latte   primitive.ObjectID
	soldOut primitive.ObjectID
}

func newCartFixture() cartFixture {
	f := cartFixture{
		carts:   newFakeCarts(),
		user:    primitive.NewObjectID(),
		latte:   primitive.NewObjectID(),
		soldOut: primitive.NewObjectID(),
	}
	was := 300.0
	products := &fakeProducts{byID: map[primitive.ObjectID]models.Product{
		f.latte:   {ID: f.latte, Name: "Caramel Latte", Price: 250, OriginalPrice: &was, Stock: models.StockInStock},
		f.soldOut: {ID: f.soldOut, Name: "Iced Mocha", Price: 300, Stock: models.StockOut},
	}}
	catalog := services.NewCatalogService(products, cache.Noop{}, 0)
	carts := services.NewCartService(f.carts)

	r := gin.New()
	r.Use(withPrincipal(services.Principal{UserID: f.user, Email: "amani@example.com", Role: models.RoleCustomer}))
	r.GET("/cart", GetCart(carts))
	r.DELETE("/cart", ClearCart(carts))
	r.POST("/cart/items", AddCartItem(carts, catalog))
	r.PUT("/cart/items/:id", UpdateCartItem(carts))
	r.DELETE("/cart/items/:id", RemoveCartItem(carts))
	f.router = r
	return f
}

type cartBody struct {
	Items    []models.CartItem `json:"items"`
	Subtotal float64           `json:"subtotal"`
}

func decodeCart(t *testing.T, raw []byte) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestAddCartItemPricesFromCatalog(t *testing.T) {
	f := newCartFixture()

	w := doJSON(t, f.router, http.MethodPost, "/cart/items", `{"productId":"`+f.latte.Hex()+`","quantity":2,"price":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeCart(t, w.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Caramel Latte", body.Items[0].Name)
	assert.Equal(t, 250.0, body.Items[0].Price)
	require.NotNil(t, body.Items[0].OriginalPrice)
	assert.Equal(t, 300.0, *body.Items[0].OriginalPrice)
	assert.Equal(t, 500.0, body.Subtotal)

	w = doJSON(t, f.router, http.MethodPost, "/cart/items", `{"productId":"`+f.latte.Hex()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeCart(t, w.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, 3, body.Items[0].Quantity)
}

func TestAddCartItemRejections(t *testing.T) {
	f := newCartFixture()

	w := doJSON(t, f.router, http.MethodPost, "/cart/items", `{"productId":"`+f.soldOut.Hex()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "out of stock")

	w = doJSON(t, f.router, http.MethodPost, "/cart/items", `{"productId":"`+primitive.NewObjectID().Hex()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/cart/items", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.carts.items[f.user])
}

func TestUpdateRemoveAndClearCart(t *testing.T) {
	f := newCartFixture()
	w := doJSON(t, f.router, http.MethodPost, "/cart/items", `{"productId":"`+f.latte.Hex()+`","quantity":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.router, http.MethodPut, "/cart/items/"+f.latte.Hex(), `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, f.router, http.MethodPut, "/cart/items/"+f.latte.Hex(), `{"quantity":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1000.0, decodeCart(t, w.Body.Bytes()).Subtotal)

	w = doJSON(t, f.router, http.MethodDelete, "/cart/items/"+f.latte.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w.Body.Bytes()).Items)

	w = doJSON(t, f.router, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeCart(t, w.Body.Bytes())
	assert.NotNil(t, body.Items)
	assert.Zero(t, body.Subtotal)
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	f := newCartFixture()

	w := doJSON(t, f.router, http.MethodGet, "/cart", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"subtotal":0}`, w.Body.String())
}
