package main

import (
	"context"
	"sync"
	"time"

	"shop/internal/auth"
	"shop/internal/cart"
	"shop/internal/catalog"
	"shop/internal/payments"
	"shop/internal/ratelimiter"
	"shop/internal/store"
	"shop/internal/token"

	"go.uber.org/zap"
)

type mockProductsStore struct {
	products map[int64]*store.Product
}

func (m *mockProductsStore) Create(_ context.Context, p *store.Product) error { return nil }

func (m *mockProductsStore) GetByID(_ context.Context, id int64) (*store.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductsStore) List(_ context.Context, _ store.ProductFilters, _, _ int) ([]*store.Product, int, error) {
	out := make([]*store.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProductsStore) Update(_ context.Context, _ *store.Product) error { return nil }
func (m *mockProductsStore) Delete(_ context.Context, _ int64) error          { return nil }

type mockVariantsStore struct {
	variants []catalog.Variant
}

func (m *mockVariantsStore) ListByProduct(_ context.Context, p *store.Product) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, v := range m.variants {
		if v.ProductID == p.ID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVariantsStore) ListByCategory(_ context.Context, c catalog.Category) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, v := range m.variants {
		if v.Category == c {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVariantsStore) GetByID(_ context.Context, p *store.Product, id int64) (*catalog.Variant, error) {
	for _, v := range m.variants {
		if v.ProductID == p.ID && v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockVariantsStore) Create(_ context.Context, _ *store.Product, _ catalog.Category, _ map[string]string, _ bool) (*catalog.Variant, error) {
	return nil, nil
}

func (m *mockVariantsStore) SetAvailability(_ context.Context, _ *store.Product, _ int64, _ bool) error {
	return nil
}

func (m *mockVariantsStore) Delete(_ context.Context, _ *store.Product, _ int64) error { return nil }

type mockProducersStore struct {
	producers map[int64]*store.Producer
	nextID    int64
}

func (m *mockProducersStore) Create(_ context.Context, p *store.Producer) error {
	for _, existing := range m.producers {
		if existing.Name == p.Name {
			return store.ErrDuplicateProducer
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.producers[p.ID] = &cp
	return nil
}

func (m *mockProducersStore) List(_ context.Context) ([]store.Producer, error) {
	out := make([]store.Producer, 0, len(m.producers))
	for _, p := range m.producers {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProducersStore) Update(_ context.Context, p *store.Producer) error {
	if _, ok := m.producers[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	m.producers[p.ID] = &cp
	return nil
}

func (m *mockProducersStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.producers[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.producers, id)
	return nil
}

type mockOrdersStore struct {
	orders     map[int64]*store.Order
	lastOrder  time.Time
	created    *store.Order
	lines      []store.OrderLine
	paidOrder  *store.Order
	sessionSet string
	confirmed  []int64
}

func (m *mockOrdersStore) CreateWithLines(_ context.Context, o *store.Order, lines []store.OrderLine) error {
	o.ID = 101
	o.OrderNumber = "SHOP-TESTORDR"
	o.CreatedAt = time.Now()
	m.created = o
	m.lines = lines
	return nil
}

func (m *mockOrdersStore) GetByID(_ context.Context, id int64) (*store.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrdersStore) GetDetail(_ context.Context, id int64) (*store.OrderDetail, error) {
	o, err := m.GetByID(nil, id)
	if err != nil {
		return nil, err
	}
	return &store.OrderDetail{Order: *o, Lines: m.lines}, nil
}

func (m *mockOrdersStore) ListByEmail(_ context.Context, email string, _, _ int) ([]store.Order, int, error) {
	var out []store.Order
	for _, o := range m.orders {
		if o.Email == email {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrdersStore) LastOrderTime(_ context.Context, _ string) (time.Time, error) {
	if m.lastOrder.IsZero() {
		return time.Time{}, store.ErrNotFound
	}
	return m.lastOrder, nil
}

func (m *mockOrdersStore) SetPaymentSession(_ context.Context, _ int64, sessionID string) error {
	m.sessionSet = sessionID
	return nil
}

func (m *mockOrdersStore) MarkPaid(_ context.Context, email, sessionID string) (*store.Order, error) {
	for _, o := range m.orders {
		if o.Email == email && o.PaymentSessionID != nil && *o.PaymentSessionID == sessionID {
			o.Paid = true
			m.paidOrder = o
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockOrdersStore) Confirm(_ context.Context, id int64) error {
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Confirmed = true
	m.confirmed = append(m.confirmed, id)
	return nil
}

type mockUsersStore struct {
	users map[int64]*store.User
}

func (m *mockUsersStore) Create(_ context.Context, _ *store.User) error { return nil }

func (m *mockUsersStore) GetByID(_ context.Context, id int64) (*store.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *mockUsersStore) GetByEmail(_ context.Context, email string) (*store.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUsersStore) Activate(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsActive = true
	return nil
}

func (m *mockUsersStore) UpdatePassword(_ context.Context, _ *store.User) error       { return nil }
func (m *mockUsersStore) SaveRefreshToken(_ context.Context, _ int64, _ string) error { return nil }
func (m *mockUsersStore) GetRefreshToken(_ context.Context, _ int64) (string, error) {
	return "", store.ErrNotFound
}
func (m *mockUsersStore) DeleteRefreshToken(_ context.Context, _ int64) error { return nil }

// memCartStore keeps carts in a plain map so handler tests need no redis.
type memCartStore struct {
	carts map[string]cart.Cart
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: map[string]cart.Cart{}}
}

func (m *memCartStore) Get(_ context.Context, sessionID string) (cart.Cart, error) {
	c, ok := m.carts[sessionID]
	if !ok {
		return cart.Cart{}, nil
	}
	return c, nil
}

func (m *memCartStore) Save(_ context.Context, sessionID string, c cart.Cart) error {
	if c.Empty() {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = c
	return nil
}

func (m *memCartStore) Clear(_ context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockMailer) Send(templateFile, _, _ string, _ any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, templateFile)
	return 200, nil
}

type mockGateway struct {
	requests []payments.CheckoutRequest
	session  payments.CheckoutSession
	err      error
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return payments.CheckoutSession{}, m.err
	}
	return m.session, nil
}

func newTestApplication() *application {
	return &application{
		config: config{
			env:         "test",
			frontendURL: "https://shop.example.com",
			cartTTL:     time.Hour,
			payment: paymentConfig{
				webhookSecret: "whsec_test",
				orderTokenExp: time.Hour * 48,
			},
			auth:        authConfig{basic: basicConfig{user: "admin", pass: "admin"}},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		registry:      catalog.NewRegistry(),
		carts:         newMemCartStore(),
		logger:        zap.NewNop().Sugar(),
		mailer:        &mockMailer{},
		gateway:       &mockGateway{session: payments.CheckoutSession{ID: "cs_test", PaymentURL: "https://pay.example.com/cs_test"}},
		orderTokens:   token.NewGenerator("test-secret", nil, "shop.orders", time.Hour*48),
		accountTokens: token.NewGenerator("test-secret", nil, "shop.accounts", time.Hour*48),
		authenticator: auth.NewJWTAuthenticator("access-secret", "refresh-secret", time.Hour, time.Hour*24, "shop", "shop"),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(1000, time.Minute),
	}
}
