// Package testutil provides in-memory stand-ins for the repositories, the
// Redis idempotency store and the event publisher.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"eshop/internal/entity"
)

// Store implements every repository port over maps guarded by one mutex, so
// PlaceOrder is atomic the way the MySQL transaction is.
type Store struct {
	mu         sync.Mutex
	users      map[int]*entity.User
	categories map[int]string
	products   map[int]*entity.Product
	cart       []entity.CartItem
	orders     []entity.Order
	nextID     int
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int]*entity.User),
		categories: make(map[int]string),
		products:   make(map[int]*entity.Product),
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) AddCategory(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.categories[id] = name
	return id
}

func (s *Store) AddProduct(p entity.Product) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	cp := p
	s.products[p.ID] = &cp
	return p
}

// Product returns the stored row, with the canonical price.
func (s *Store) Product(id int) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

func (s *Store) SetAdmin(userID int, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID].IsAdmin = admin
}

func (s *Store) User(id int) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *Store) Orders() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Order(nil), s.orders...)
}

func (s *Store) CartItems() []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.CartItem(nil), s.cart...)
}

func (s *Store) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: Duplicate entry '%s'", entity.ErrConflict, user.Username)
		}
	}
	user.ID = s.id()
	user.IsAdmin = false
	cp := *user
	s.users[user.ID] = &cp
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", entity.ErrNotFound, username)
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.UserSummary{}
	for _, u := range s.users {
		out = append(out, entity.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Sales: u.Sales})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) withCategory(p entity.Product) entity.Product {
	if p.CategoryID != nil {
		if name, ok := s.categories[*p.CategoryID]; ok {
			p.Category = &name
		}
	}
	return p
}

func (s *Store) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.Product{}
	for _, p := range s.products {
		row := s.withCategory(*p)
		if filter.Search != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && (row.Category == nil || *row.Category != filter.Category) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", entity.ErrNotFound, id)
	}
	row := s.withCategory(*p)
	return &row, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.CategoryID != nil {
		if _, ok := s.categories[*product.CategoryID]; !ok {
			return nil, fmt.Errorf("%w: referenced row does not exist", entity.ErrNotFound)
		}
	}
	product.ID = s.id()
	cp := *product
	s.products[product.ID] = &cp
	return product, nil
}

func (s *Store) AddCartItem(ctx context.Context, item *entity.CartItem) (*entity.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[item.UserID]; !ok {
		return nil, fmt.Errorf("%w: referenced row does not exist", entity.ErrNotFound)
	}
	item.ID = s.id()
	s.cart = append(s.cart, *item)
	return item, nil
}

func (s *Store) ListCartItems(ctx context.Context, userID int) ([]entity.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.CartItem{}
	for _, item := range s.cart {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

// PlaceOrder validates every line before touching state, which gives the same
// all-or-nothing outcome as the transactional repository.
func (s *Store) PlaceOrder(ctx context.Context, userID int, lines []entity.OrderLine) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", entity.ErrNotFound, userID)
	}

	need := make(map[int]int)
	for _, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", entity.ErrNotFound, line.ProductID)
		}
		need[line.ProductID] += line.Quantity
		if p.Stock < need[line.ProductID] {
			return nil, fmt.Errorf("%w: product %d", entity.ErrInsufficientStock, line.ProductID)
		}
	}

	now := time.Now().UTC()
	orders := make([]entity.Order, 0, len(lines))
	for _, line := range lines {
		p := s.products[line.ProductID]
		p.Stock -= line.Quantity
		user.Sales += p.Price * float64(line.Quantity)
		o := entity.Order{
			ID:        s.id(),
			UserID:    userID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Status:    entity.OrderStatusPending,
			CreatedAt: now,
		}
		s.orders = append(s.orders, o)
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: order %d", entity.ErrNotFound, id)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == from {
			s.orders[i].Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: order %d is no longer %s", entity.ErrConflict, id, from)
}

func (s *Store) ListOrders(ctx context.Context, status string) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.Order{}
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) SalesStats(ctx context.Context) ([]entity.SalesStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[int]int)
	for _, o := range s.orders {
		if o.Status != entity.OrderStatusCancelled {
			totals[o.ProductID] += o.Quantity
		}
	}
	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []entity.SalesStat{}
	for _, id := range ids {
		out = append(out, entity.SalesStat{Name: s.products[id].Name, TotalSold: totals[id]})
	}
	return out, nil
}

// Keys is an in-memory idempotency store.
type Keys struct {
	mu   sync.Mutex
	keys map[string]bool
}

func NewKeys() *Keys {
	return &Keys{keys: make(map[string]bool)}
}

func (k *Keys) Claim(ctx context.Context, key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys[key] {
		return false, nil
	}
	k.keys[key] = true
	return true, nil
}

func (k *Keys) Release(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, key)
	return nil
}

// Events records published event keys and how many Publish calls carried them.
type Events struct {
	mu    sync.Mutex
	keys  []string
	calls int
}

func (e *Events) Publish(ctx context.Context, events ...entity.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	for _, ev := range events {
		e.keys = append(e.keys, ev.Key)
	}
	return nil
}

func (e *Events) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *Events) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

// Images is an in-memory image store.
type Images struct {
	mu    sync.Mutex
	files map[string][]byte
	n     int
	Err   error
}

func NewImages() *Images {
	return &Images{files: make(map[string][]byte)}
}

func (m *Images) Save(filename string, r io.Reader) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	path := fmt.Sprintf("/uploads/img-%d", m.n)
	m.files[path] = b
	return path, nil
}

func (m *Images) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *Images) Files() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}
