package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"shoply/internal/models"
	"shoply/internal/store"
)

// In-memory stand-ins for the pgx stores. fakeOrders reproduces the
// placement transaction's semantics: all-or-nothing, stock checked against
// pending decrements so duplicate lines are validated cumulatively, and a
// single lock standing in for the per-row FOR UPDATE.

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for uid, u := range f.users {
		if uid != id && u.Email == email {
			return store.ErrDuplicate
		}
	}
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Email = email
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*models.RefreshToken
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{tokens: map[uuid.UUID]*models.RefreshToken{}}
}

func (f *fakeRefreshTokens) Insert(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeRefreshTokens) FindActive(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash && !t.Revoked {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRefreshTokens) Revoke(_ context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok || t.Revoked {
		return store.ErrNotFound
	}
	t.Revoked = true
	t.ReplacedByToken = replacedBy
	return nil
}

func (f *fakeRefreshTokens) RevokeByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash && !t.Revoked {
			t.Revoked = true
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[uuid.UUID]*models.Product{}}
}

func (f *fakeProducts) add(name string, price string, stock int) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.products[id] = &models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	return id
}

func (f *fakeProducts) stock(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeProducts) List(_ context.Context, page, limit int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

type fakeOrders struct {
	products *fakeProducts
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
}

func newFakeOrders(products *fakeProducts) *fakeOrders {
	return &fakeOrders{products: products, orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrders) Place(_ context.Context, userID uuid.UUID, lines []store.OrderLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, store.ValidationError{Message: "at least one item is required"}
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, store.ValidationError{Message: "quantity must be greater than zero"}
		}
		if ln.Price.IsNegative() {
			return nil, store.ValidationError{Message: "price must not be negative"}
		}
	}

	f.products.mu.Lock()
	defer f.products.mu.Unlock()

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	staged := map[uuid.UUID]int{}
	total := decimal.Zero

	for _, ln := range lines {
		p, ok := f.products.products[ln.ProductID]
		if !ok {
			return nil, store.ProductNotFoundError{ProductID: ln.ProductID}
		}
		available := p.Stock - staged[ln.ProductID]
		if available < ln.Quantity {
			return nil, store.InsufficientStockError{
				ProductID:   ln.ProductID,
				ProductName: p.Name,
				Available:   available,
				Requested:   ln.Quantity,
			}
		}
		staged[ln.ProductID] += ln.Quantity
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   ln.ProductID,
			ProductName: p.Name,
			Quantity:    ln.Quantity,
			Price:       ln.Price,
		})
		total = total.Add(ln.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	for id, qty := range staged {
		f.products.products[id].Stock -= qty
	}
	order.TotalPrice = total

	f.mu.Lock()
	f.orders[order.ID] = order
	f.mu.Unlock()
	return order, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindForUser(_ context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

type fakeResetTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newFakeResetTokens() *fakeResetTokens {
	return &fakeResetTokens{tokens: map[string]uuid.UUID{}}
}

func (f *fakeResetTokens) Save(_ context.Context, token string, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = userID
	return nil
}

func (f *fakeResetTokens) Consume(_ context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, errors.New("token not found")
	}
	delete(f.tokens, token)
	return id, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	to   []string
	link []string
}

func (f *fakeMailer) SendPasswordReset(to, resetLink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.link = append(f.link, resetLink)
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []kafka.Message
}

func (f *fakeEvents) Publish(key, value []byte, headers ...kafka.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, kafka.Message{Key: key, Value: value, Headers: headers})
}
