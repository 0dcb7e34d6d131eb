package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"eshop/internal/entity"
)

type CreateProductInput struct {
	Name        string
	Description string
	CategoryID  int // 0 means uncategorized
	Price       float64
	Stock       int
	Currency    string
}

// Upload is an image file sent with a product.
type Upload struct {
	Filename string
	Body     io.Reader
}

type CatalogService struct {
	products ProductRepository
	rates    *RateTable
	images   ImageStore
}

func NewCatalogService(products ProductRepository, rates *RateTable, images ImageStore) *CatalogService {
	return &CatalogService{
		products: products,
		rates:    rates,
		images:   images,
	}
}

// ListProducts returns the filtered catalog with prices in the display
// currency. Stored prices are not modified.
func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter, currency string) ([]entity.Product, error) {
	currency, err := s.rates.Resolve(currency)
	if err != nil {
		return nil, err
	}

	products, err := s.products.ListProducts(ctx, entity.ProductFilter{
		Search:   strings.TrimSpace(filter.Search),
		Category: strings.TrimSpace(filter.Category),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}

	for i := range products {
		if err := s.display(&products[i], currency); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int, currency string) (*entity.Product, error) {
	currency, err := s.rates.Resolve(currency)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.display(product, currency); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) display(p *entity.Product, currency string) error {
	price, err := s.rates.ToDisplay(p.Price, currency)
	if err != nil {
		return err
	}
	p.Price = price
	p.Currency = currency
	return nil
}

// CreateProduct stores a product with its price converted to the canonical
// currency. The optional image is saved first and removed again if the insert
// fails.
func (s *CatalogService) CreateProduct(ctx context.Context, caller entity.Identity, in CreateProductInput, image *Upload) (*entity.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", entity.ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", entity.ErrValidation)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", entity.ErrValidation)
	}
	if in.CategoryID < 0 {
		return nil, fmt.Errorf("%w: invalid category_id", entity.ErrValidation)
	}

	price, err := s.rates.ToCanonical(in.Price, strings.TrimSpace(in.Currency))
	if err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Currency:    s.rates.Canonical(),
		Stock:       in.Stock,
	}
	if in.CategoryID > 0 {
		id := in.CategoryID
		product.CategoryID = &id
	}

	if image != nil {
		path, err := s.images.Save(image.Filename, image.Body)
		if err != nil {
			logger.Error().Err(err).Msgf("Error saving image %q", image.Filename)
			return nil, fmt.Errorf("%w: could not store image", entity.ErrIO)
		}
		product.Image = &path
	}

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		if product.Image != nil {
			if rmErr := s.images.Remove(*product.Image); rmErr != nil {
				logger.Warn().Err(rmErr).Msgf("Error removing orphaned image %s", *product.Image)
			}
		}
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}

	logger.Info().Msgf("Created product %d", created.ID)
	return created, nil
}
