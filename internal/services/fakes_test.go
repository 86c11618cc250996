package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/events"
	"coffeeshop/internal/models"
	"coffeeshop/internal/store"
)

// memDB is an in-memory stand-in for the Mongo repositories. Values are
// copied on every read and write so callers never share slices with it.
type memDB struct {
	mu          sync.Mutex
	products    map[primitive.ObjectID]models.Product
	carts       map[primitive.ObjectID][]models.CartItem
	orders      map[primitive.ObjectID]models.Order
	coupons     map[primitive.ObjectID]models.Coupon
	users       map[primitive.ObjectID]models.User
	rewards     map[primitive.ObjectID]models.Reward
	redemptions map[primitive.ObjectID]models.Redemption
	tokens      map[primitive.ObjectID]models.RefreshToken
	fail        map[string]error
	// hooks run just before an operation, e.g. to cancel the caller's context.
	hooks map[string]func()
}

func newMemDB() *memDB {
	return &memDB{
		products:    map[primitive.ObjectID]models.Product{},
		carts:       map[primitive.ObjectID][]models.CartItem{},
		orders:      map[primitive.ObjectID]models.Order{},
		coupons:     map[primitive.ObjectID]models.Coupon{},
		users:       map[primitive.ObjectID]models.User{},
		rewards:     map[primitive.ObjectID]models.Reward{},
		redemptions: map[primitive.ObjectID]models.Redemption{},
		tokens:      map[primitive.ObjectID]models.RefreshToken{},
		fail:        map[string]error{},
		hooks:       map[string]func(){},
	}
}

func (db *memDB) failure(op string) error {
	return db.fail[op]
}

// guard behaves like a driver call: it runs the op hook, then refuses to
// work on a done context before consulting the injected failures.
func (db *memDB) guard(ctx context.Context, op string) error {
	if hook := db.hooks[op]; hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.failure(op)
}

type memSnapshot struct {
	products    map[primitive.ObjectID]models.Product
	carts       map[primitive.ObjectID][]models.CartItem
	orders      map[primitive.ObjectID]models.Order
	coupons     map[primitive.ObjectID]models.Coupon
	users       map[primitive.ObjectID]models.User
	rewards     map[primitive.ObjectID]models.Reward
	redemptions map[primitive.ObjectID]models.Redemption
	tokens      map[primitive.ObjectID]models.RefreshToken
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		products:    cloneMap(db.products),
		carts:       cloneMap(db.carts),
		orders:      cloneMap(db.orders),
		coupons:     cloneMap(db.coupons),
		users:       cloneMap(db.users),
		rewards:     cloneMap(db.rewards),
		redemptions: cloneMap(db.redemptions),
		tokens:      cloneMap(db.tokens),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products, db.carts, db.orders, db.coupons = s.products, s.carts, s.orders, s.coupons
	db.users, db.rewards, db.redemptions, db.tokens = s.users, s.rewards, s.redemptions, s.tokens
}

// memTx emulates a transaction by restoring a snapshot when fn fails.
type memTx struct {
	db     *memDB
	atomic bool
}

func (t memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.atomic {
		return fn(ctx)
	}
	snap := t.db.snapshot()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

func (t memTx) Atomic() bool { return t.atomic }

// products

type memProducts struct{ db *memDB }

func (r memProducts) List(_ context.Context, filter store.ProductFilter) ([]models.Product, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.db.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r memProducts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = primitive.NewObjectID()
	r.db.products[p.ID] = *p
	return nil
}

func (r memProducts) Replace(_ context.Context, p *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.products[p.ID] = *p
	return nil
}

func (r memProducts) UpdateStock(_ context.Context, id primitive.ObjectID, stock models.StockStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock = stock
	r.db.products[id] = p
	return nil
}

func (r memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.products, id)
	return nil
}

func (r memProducts) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.products)), nil
}

func (r memProducts) Categories(context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range r.db.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// carts

type memCarts struct{ db *memDB }

func (r memCarts) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("carts.GetByUser"); err != nil {
		return nil, err
	}
	items, ok := r.db.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Cart{UserID: userID, Items: append([]models.CartItem{}, items...)}, nil
}

func (r memCarts) Save(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.guard(ctx, "carts.Save"); err != nil {
		return err
	}
	r.db.carts[userID] = append([]models.CartItem{}, items...)
	return nil
}

// orders

type memOrders struct{ db *memDB }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("orders.Create"); err != nil {
		return err
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.db.orders[o.ID] = *o
	return nil
}

func (r memOrders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (r memOrders) List(_ context.Context, filter store.OrderFilter) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.db.orders {
		if filter.Email != "" && o.Email != filter.Email {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus, steps []models.TrackingStep) error {
	return r.update(id, func(o *models.Order) {
		o.Status = status
		o.TrackingSteps = append([]models.TrackingStep{}, steps...)
	})
}

func (r memOrders) UpdatePaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	return r.update(id, func(o *models.Order) { o.PaymentStatus = status })
}

func (r memOrders) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	if err := r.db.guard(ctx, "orders.MarkFailed"); err != nil {
		return err
	}
	return r.update(id, func(o *models.Order) {
		o.Status = models.OrderFailed
		o.FailureReason = reason
	})
}

func (r memOrders) update(id primitive.ObjectID, fn func(*models.Order)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&o)
	r.db.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.orders, id)
	return nil
}

func (r memOrders) Stats(context.Context) (store.OrderStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var stats store.OrderStats
	for _, o := range r.db.orders {
		if o.Status == models.OrderFailed {
			continue
		}
		stats.Count++
		stats.Revenue += o.Total
	}
	return stats, nil
}

// coupons

type memCoupons struct{ db *memDB }

func (r memCoupons) List(context.Context) ([]models.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Coupon{}
	for _, c := range r.db.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (r memCoupons) GetByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.coupons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (r memCoupons) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.coupons {
		if c.Code == strings.ToUpper(code) {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r memCoupons) Create(_ context.Context, c *models.Coupon) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.coupons {
		if existing.Code == c.Code {
			return store.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	r.db.coupons[c.ID] = *c
	return nil
}

func (r memCoupons) Replace(_ context.Context, c *models.Coupon) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.coupons[c.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.coupons[c.ID] = *c
	return nil
}

func (r memCoupons) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.coupons[id]
	if !ok {
		return store.ErrNotFound
	}
	c.IsActive = active
	r.db.coupons[id] = c
	return nil
}

func (r memCoupons) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.coupons[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.coupons, id)
	return nil
}

func (r memCoupons) IncrementUse(ctx context.Context, code string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.guard(ctx, "coupons.IncrementUse"); err != nil {
		return err
	}
	for id, c := range r.db.coupons {
		if c.Code != code {
			continue
		}
		if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
			return store.ErrConditionFailed
		}
		c.CurrentUses++
		r.db.coupons[id] = c
		return nil
	}
	return store.ErrNotFound
}

func (r memCoupons) DecrementUse(ctx context.Context, code string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.guard(ctx, "coupons.DecrementUse"); err != nil {
		return err
	}
	for id, c := range r.db.coupons {
		if c.Code != code {
			continue
		}
		if c.CurrentUses <= 0 {
			return store.ErrConditionFailed
		}
		c.CurrentUses--
		r.db.coupons[id] = c
		return nil
	}
	return store.ErrConditionFailed
}

// users

type memUsers struct{ db *memDB }

func cloneUser(u models.User) models.User {
	u.Loyalty.Orders = append([]string{}, u.Loyalty.Orders...)
	return u
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == strings.ToLower(u.Email) {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.Email = strings.ToLower(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.db.users[u.ID] = cloneUser(*u)
	return nil
}

func (r memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r memUsers) List(context.Context) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.User{}
	for _, u := range r.db.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r memUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, update store.ProfileUpdate) (*models.User, error) {
	var out models.User
	err := r.update(id, func(u *models.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
		if update.Address != nil {
			u.Address = *update.Address
		}
		out = cloneUser(*u)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memUsers) CreditPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	if err := r.db.guard(ctx, "users.CreditPoints"); err != nil {
		return err
	}
	return r.update(id, func(u *models.User) { u.Loyalty.Points += points })
}

func (r memUsers) DebitPoints(_ context.Context, id primitive.ObjectID, points int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.Loyalty.Points < points {
		return store.ErrConditionFailed
	}
	u.Loyalty.Points -= points
	r.db.users[id] = u
	return nil
}

func (r memUsers) AppendOrder(_ context.Context, id primitive.ObjectID, orderID string) error {
	return r.update(id, func(u *models.User) {
		for _, existing := range u.Loyalty.Orders {
			if existing == orderID {
				return
			}
		}
		u.Loyalty.Orders = append(append([]string{}, u.Loyalty.Orders...), orderID)
	})
}

func (r memUsers) RemoveOrder(ctx context.Context, orderID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.guard(ctx, "users.RemoveOrder"); err != nil {
		return err
	}
	for id, u := range r.db.users {
		kept := []string{}
		for _, existing := range u.Loyalty.Orders {
			if existing != orderID {
				kept = append(kept, existing)
			}
		}
		u.Loyalty.Orders = kept
		r.db.users[id] = u
	}
	return nil
}

func (r memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.users, id)
	return nil
}

func (r memUsers) Count(context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, u := range r.db.users {
		if u.Role == models.RoleCustomer {
			n++
		}
	}
	return n, nil
}

func (r memUsers) update(id primitive.ObjectID, fn func(*models.User)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u = cloneUser(u)
	fn(&u)
	r.db.users[id] = u
	return nil
}

// rewards and redemptions

type memRewards struct{ db *memDB }

func (r memRewards) List(_ context.Context, activeOnly bool) ([]models.Reward, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Reward{}
	for _, rw := range r.db.rewards {
		if activeOnly && !rw.Active {
			continue
		}
		out = append(out, rw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points < out[j].Points })
	return out, nil
}

func (r memRewards) GetByID(_ context.Context, id primitive.ObjectID) (*models.Reward, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rw, ok := r.db.rewards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rw, nil
}

func (r memRewards) Create(_ context.Context, rw *models.Reward) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rw.ID = primitive.NewObjectID()
	r.db.rewards[rw.ID] = *rw
	return nil
}

func (r memRewards) Replace(_ context.Context, rw *models.Reward) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.rewards[rw.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.rewards[rw.ID] = *rw
	return nil
}

func (r memRewards) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.rewards[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.rewards, id)
	return nil
}

type memRedemptions struct{ db *memDB }

func (r memRedemptions) Create(ctx context.Context, rd *models.Redemption) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.guard(ctx, "redemptions.Create"); err != nil {
		return err
	}
	rd.ID = primitive.NewObjectID()
	if rd.RedeemedAt.IsZero() {
		rd.RedeemedAt = time.Now().UTC()
	}
	r.db.redemptions[rd.ID] = *rd
	return nil
}

func (r memRedemptions) List(_ context.Context, userID *primitive.ObjectID) ([]models.Redemption, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Redemption{}
	for _, rd := range r.db.redemptions {
		if userID != nil && rd.UserID != *userID {
			continue
		}
		out = append(out, rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out, nil
}

// refresh tokens

type memTokens struct{ db *memDB }

func (r memTokens) Create(_ context.Context, tk *models.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if tk.ID.IsZero() {
		tk.ID = primitive.NewObjectID()
	}
	r.db.tokens[tk.ID] = *tk
	return nil
}

func (r memTokens) GetByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, tk := range r.db.tokens {
		if tk.TokenHash == hash {
			return &tk, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r memTokens) Revoke(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	tk, ok := r.db.tokens[id]
	if !ok || tk.Revoked {
		return store.ErrConditionFailed
	}
	tk.Revoked = true
	tk.ReplacedByToken = replacedBy
	r.db.tokens[id] = tk
	return nil
}

func (r memTokens) RevokeAllForUser(_ context.Context, userID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, tk := range r.db.tokens {
		if tk.UserID == userID {
			tk.Revoked = true
			r.db.tokens[id] = tk
		}
	}
	return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (db *memDB) seedUser(email string, points int) models.User {
	u := models.User{Email: email, Name: "Amani", Role: models.RoleCustomer, Loyalty: models.Loyalty{Points: points, Orders: []string{}}}
	_ = memUsers{db}.Create(context.Background(), &u)
	return u
}

func (db *memDB) seedCoupon(c models.Coupon) models.Coupon {
	_ = memCoupons{db}.Create(context.Background(), &c)
	return c
}

func (db *memDB) points(id primitive.ObjectID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[id].Loyalty.Points
}
