package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/middleware"
	"coffeeshop/internal/models"
	"coffeeshop/internal/services"
	"coffeeshop/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withPrincipal stands in for middleware.Authenticate.
func withPrincipal(p services.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, p)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, update store.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) CreditPoints(_ context.Context, id primitive.ObjectID, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Loyalty.Points += points
	return nil
}

func (f *fakeUsers) DebitPoints(_ context.Context, id primitive.ObjectID, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Loyalty.Points < points {
		return store.ErrConditionFailed
	}
	u.Loyalty.Points -= points
	return nil
}

func (f *fakeUsers) AppendOrder(_ context.Context, id primitive.ObjectID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.Loyalty.Orders = append(u.Loyalty.Orders, orderID)
	}
	return nil
}

func (f *fakeUsers) RemoveOrder(context.Context, string) error { return nil }

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

type fakeTokens struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byHash: map[string]*models.RefreshToken{}}
}

func (f *fakeTokens) Create(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.ID = primitive.NewObjectID()
	cp := *token
	f.byHash[token.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) GetByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) Revoke(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byHash {
		if t.ID == id {
			t.Revoked = true
			t.ReplacedByToken = replacedBy
		}
	}
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byHash {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type fakeCarts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID][]models.CartItem
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{items: map[primitive.ObjectID][]models.CartItem{}}
}

func (f *fakeCarts) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.items[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Cart{UserID: userID, Items: append([]models.CartItem(nil), items...)}, nil
}

func (f *fakeCarts) Save(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[userID] = append([]models.CartItem(nil), items...)
	return nil
}

// fakeProducts only serves reads; the catalog write paths are covered in the
// services package.
type fakeProducts struct {
	store.ProductRepository
	byID map[primitive.ObjectID]models.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

type fakeOrders struct {
	store.OrderRepository
	byID map[primitive.ObjectID]models.Order
}

func (f *fakeOrders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}
