package service

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"eshop/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type UserRepository interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.UserSummary, error)
}

type ProductRepository interface {
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
}

type CartRepository interface {
	AddCartItem(ctx context.Context, item *entity.CartItem) (*entity.CartItem, error)
	ListCartItems(ctx context.Context, userID int) ([]entity.CartItem, error)
}

type OrderRepository interface {
	PlaceOrder(ctx context.Context, userID int, lines []entity.OrderLine) ([]entity.Order, error)
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, from, to string) error
	ListOrders(ctx context.Context, status string) ([]entity.Order, error)
	SalesStats(ctx context.Context) ([]entity.SalesStat, error)
}

// IdempotencyStore claims order request keys so a retried request is not
// placed twice.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.Event) error
}

type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(publicPath string) error
}

func requireAdmin(id entity.Identity) error {
	if !id.IsAdmin {
		return entity.ErrForbidden
	}
	return nil
}
