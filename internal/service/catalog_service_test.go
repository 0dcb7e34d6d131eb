package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"eshop/internal/entity"
	"eshop/internal/testutil"
)

var (
	adminID    = entity.Identity{UserID: 1, IsAdmin: true}
	customerID = entity.Identity{UserID: 2}
)

func seedCatalog(store *testutil.Store) (tools int) {
	tools = store.AddCategory("Tools")
	toys := store.AddCategory("Toys")
	store.AddProduct(entity.Product{Name: "Widget", Price: 100, Stock: 5, CategoryID: &tools})
	store.AddProduct(entity.Product{Name: "Wrench", Price: 250, Stock: 1, CategoryID: &tools})
	store.AddProduct(entity.Product{Name: "Widget Doll", Price: 40, Stock: 9, CategoryID: &toys})
	store.AddProduct(entity.Product{Name: "Loose widget", Price: 10, Stock: 0})
	return tools
}

func names(products []entity.Product) string {
	var out []string
	for _, p := range products {
		out = append(out, p.Name)
	}
	return strings.Join(out, ",")
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	seedCatalog(store)
	svc := NewCatalogService(store, newRates(t), testutil.NewImages())

	t.Run("no filters, canonical prices unchanged", func(t *testing.T) {
		got, err := svc.ListProducts(ctx, entity.ProductFilter{}, "")
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 products, got %d", len(got))
		}
		for _, p := range got {
			if p.Price != store.Product(p.ID).Price || p.Currency != "Kč" {
				t.Fatalf("price changed for %s: %v %s", p.Name, p.Price, p.Currency)
			}
		}
	})

	t.Run("search", func(t *testing.T) {
		got, err := svc.ListProducts(ctx, entity.ProductFilter{Search: "widget"}, "Kč")
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if names(got) != "Widget,Widget Doll,Loose widget" {
			t.Fatalf("got %s", names(got))
		}
	})

	t.Run("search and category", func(t *testing.T) {
		got, err := svc.ListProducts(ctx, entity.ProductFilter{Search: "Wid", Category: "Tools"}, "")
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if names(got) != "Widget" {
			t.Fatalf("got %s", names(got))
		}
	})

	t.Run("display currency does not touch stored price", func(t *testing.T) {
		got, err := svc.ListProducts(ctx, entity.ProductFilter{Category: "Tools"}, "€")
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if got[0].Price != 4 || got[1].Price != 10 || got[0].Currency != "€" {
			t.Fatalf("unexpected display prices %+v", got)
		}
		if store.Product(got[0].ID).Price != 100 {
			t.Fatal("stored price was mutated")
		}
	})

	t.Run("unknown currency", func(t *testing.T) {
		if _, err := svc.ListProducts(ctx, entity.ProductFilter{}, "USD"); !errors.Is(err, entity.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	seedCatalog(store)
	svc := NewCatalogService(store, newRates(t), testutil.NewImages())

	all, _ := store.ListProducts(ctx, entity.ProductFilter{})
	p, err := svc.GetProduct(ctx, all[0].ID, "€")
	if err != nil || p.Price != 4 {
		t.Fatalf("got %+v, %v", p, err)
	}
	if _, err := svc.GetProduct(ctx, 999, ""); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("price converted to canonical and back", func(t *testing.T) {
		store := testutil.NewStore()
		tools := seedCatalog(store)
		svc := NewCatalogService(store, newRates(t), testutil.NewImages())

		created, err := svc.CreateProduct(ctx, adminID, CreateProductInput{
			Name: "Hammer", CategoryID: tools, Price: 12.5, Stock: 3, Currency: "€",
		}, nil)
		if err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
		if stored := store.Product(created.ID); stored.Price != 312.5 || stored.Image != nil {
			t.Fatalf("unexpected stored product %+v", stored)
		}

		shown, err := svc.GetProduct(ctx, created.ID, "€")
		if err != nil {
			t.Fatalf("GetProduct: %v", err)
		}
		if math.Abs(shown.Price-12.5) > 0.005 {
			t.Fatalf("expected ~12.5, got %v", shown.Price)
		}
	})

	t.Run("image stored under unique path", func(t *testing.T) {
		store := testutil.NewStore()
		images := testutil.NewImages()
		svc := NewCatalogService(store, newRates(t), images)

		a, err := svc.CreateProduct(ctx, adminID, CreateProductInput{Name: "A", Price: 1}, &Upload{Filename: "pic.png", Body: strings.NewReader("a")})
		if err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
		b, err := svc.CreateProduct(ctx, adminID, CreateProductInput{Name: "B", Price: 1}, &Upload{Filename: "pic.png", Body: strings.NewReader("b")})
		if err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
		if a.Image == nil || b.Image == nil || *a.Image == *b.Image {
			t.Fatalf("expected distinct image paths, got %v %v", a.Image, b.Image)
		}
		if len(images.Files()) != 2 {
			t.Fatalf("expected 2 files, got %d", len(images.Files()))
		}
	})

	t.Run("image removed when insert fails", func(t *testing.T) {
		store := testutil.NewStore()
		images := testutil.NewImages()
		svc := NewCatalogService(store, newRates(t), images)

		_, err := svc.CreateProduct(ctx, adminID, CreateProductInput{Name: "A", Price: 1, CategoryID: 77}, &Upload{Filename: "x.jpg", Body: strings.NewReader("x")})
		if !errors.Is(err, entity.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if len(images.Files()) != 0 {
			t.Fatalf("expected orphan image to be removed, got %v", images.Files())
		}
	})

	t.Run("image failure", func(t *testing.T) {
		images := testutil.NewImages()
		images.Err = errors.New("disk full")
		svc := NewCatalogService(testutil.NewStore(), newRates(t), images)

		_, err := svc.CreateProduct(ctx, adminID, CreateProductInput{Name: "A", Price: 1}, &Upload{Filename: "x.jpg", Body: strings.NewReader("x")})
		if !errors.Is(err, entity.ErrIO) {
			t.Fatalf("expected ErrIO, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewCatalogService(testutil.NewStore(), newRates(t), testutil.NewImages())
		cases := map[string]CreateProductInput{
			"empty name":       {Name: " ", Price: 1},
			"zero price":       {Name: "A"},
			"negative stock":   {Name: "A", Price: 1, Stock: -1},
			"unknown currency": {Name: "A", Price: 1, Currency: "USD"},
		}
		for name, in := range cases {
			if _, err := svc.CreateProduct(ctx, adminID, in, nil); !errors.Is(err, entity.ErrValidation) {
				t.Fatalf("%s: expected ErrValidation, got %v", name, err)
			}
		}
	})

	t.Run("non admin", func(t *testing.T) {
		svc := NewCatalogService(testutil.NewStore(), newRates(t), testutil.NewImages())
		if _, err := svc.CreateProduct(ctx, customerID, CreateProductInput{Name: "A", Price: 1}, nil); !errors.Is(err, entity.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
