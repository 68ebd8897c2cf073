// Command seed-db loads a demo catalog and starter coupons into the
// database. Seeding is skipped when products already exist, so the command
// is safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/coupon"
	"github.com/xenking/market-engine/internal/repository"
)

type seedProduct struct {
	name        string
	description string
	basePrice   string
	stock       int
	featured    bool
	discount    string
	category    string
	imageURL    string
	demandCount int
}

var seedCategories = []string{"Electronics", "Fashion", "Home & Appliances", "Books", "Sports"}

var seedProducts = []seedProduct{
	{"iPhone 15 Pro Max", "Apple's flagship smartphone with 48MP camera, A17 Pro chip, titanium design",
		"134900", 50, true, "5", "Electronics",
		"https://images.unsplash.com/photo-1696446701796-da61225697cc?w=400", 245},
	{"Samsung Galaxy S24 Ultra", "Quad-camera system, 200MP, built-in S Pen, Snapdragon 8 Gen 3",
		"124999", 35, true, "8", "Electronics",
		"https://images.unsplash.com/photo-1706176942334-5e3fc5ae8ec5?w=400", 189},
	{"MacBook Pro 14 M3", "Apple M3 chip, 14-inch Liquid Retina XDR display, 18hr battery",
		"199900", 20, true, "3", "Electronics",
		"https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400", 156},
	{"Sony WH-1000XM5", "Industry-leading noise cancelling headphones, 30hr battery",
		"29990", 75, false, "15", "Electronics",
		"https://images.unsplash.com/photo-1546435770-a3e426bf472b?w=400", 312},
	{"iPad Pro 12.9 M2", "Apple M2, Liquid Retina XDR, ProMotion 120Hz display",
		"112900", 30, true, "0", "Electronics",
		"https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=400", 98},
	{"Dell XPS 15", "Intel Core i9, OLED 4K display, RTX 4060, 16GB RAM",
		"159990", 15, false, "10", "Electronics",
		"https://images.unsplash.com/photo-1593642632559-0c6d3fc62b89?w=400", 87},
	{"Premium Leather Jacket", "Genuine leather biker jacket, slim fit, multiple pockets",
		"8999", 100, true, "20", "Fashion",
		"https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400", 423},
	{"Designer Handbag", "Italian leather handbag, gold hardware, removable strap",
		"12499", 45, false, "0", "Fashion",
		"https://images.unsplash.com/photo-1548036328-c9fa89d128fa?w=400", 267},
	{"Running Shoes Pro", "Advanced cushioning, breathable mesh, carbon fiber plate",
		"7999", 120, true, "12", "Sports",
		"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400", 534},
	{"Yoga Mat Premium", "Non-slip, 6mm thick, eco-friendly TPE material",
		"1499", 200, false, "0", "Sports",
		"https://images.unsplash.com/photo-1592432678016-e910b452f9a2?w=400", 189},
	{"Smart Home Hub", "Control all smart devices, compatible with Alexa & Google Home",
		"5999", 8, true, "5", "Home & Appliances",
		"https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=400", 145},
	{"Air Purifier HEPA", "True HEPA filter, covers 500 sq ft, PM2.5 sensor",
		"15999", 3, false, "0", "Home & Appliances",
		"https://images.unsplash.com/photo-1585771724684-38269d6639fd?w=400", 78},
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	var productCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&productCount); err != nil {
		return errors.Wrap(err, "count products")
	}
	if productCount > 0 {
		slog.Info("data already initialized, skipping", slog.Int("products", productCount))
		return nil
	}

	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding categories", slog.Int("count", len(seedCategories)))

	categoryIDs := make(map[string]int64, len(seedCategories))
	for _, name := range seedCategories {
		var id int64
		err := pool.QueryRow(ctx,
			`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name,
		).Scan(&id)
		if err != nil {
			return errors.Wrapf(err, "insert category %s", name)
		}
		categoryIDs[name] = id
	}

	slog.Info("seeding products", slog.Int("count", len(seedProducts)))

	hundred := decimal.NewFromInt(100)
	for _, p := range seedProducts {
		basePrice, err := decimal.NewFromString(p.basePrice)
		if err != nil {
			return errors.Wrapf(err, "parse base price for %s", p.name)
		}
		discount, err := decimal.NewFromString(p.discount)
		if err != nil {
			return errors.Wrapf(err, "parse discount for %s", p.name)
		}

		// Start current_price at the markdown price; the pricing engine
		// takes over from the first product view.
		currentPrice := basePrice.Mul(hundred.Sub(discount)).Div(hundred).Round(2)

		_, err = pool.Exec(ctx,
			`INSERT INTO products (name, description, base_price, current_price, stock_quantity,
				demand_count, discount_percentage, image_url, active, featured, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10)`,
			p.name, p.description, basePrice, currentPrice, p.stock,
			p.demandCount, discount, p.imageURL, p.featured, categoryIDs[p.category],
		)
		if err != nil {
			return errors.Wrapf(err, "insert product %s", p.name)
		}

		slog.Info("inserted product", slog.String("name", p.name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding starter coupons")

	maxNeuro := decimal.NewFromInt(500)
	maxWelcome := decimal.NewFromInt(1000)
	in3Months := time.Now().AddDate(0, 3, 0)
	in6Months := time.Now().AddDate(0, 6, 0)
	in12Months := time.Now().AddDate(1, 0, 0)

	coupons := []*coupon.Rule{
		{
			Code:         "NEURO10",
			DiscountType: coupon.DiscountPercentage,
			Value:        decimal.NewFromInt(10),
			MinOrder:     decimal.NewFromInt(500),
			MaxDiscount:  &maxNeuro,
			UsageLimit:   1000,
			ExpiresAt:    &in6Months,
			Active:       true,
		},
		{
			Code:         "SAVE200",
			DiscountType: coupon.DiscountFlat,
			Value:        decimal.NewFromInt(200),
			MinOrder:     decimal.NewFromInt(2000),
			UsageLimit:   500,
			ExpiresAt:    &in3Months,
			Active:       true,
		},
		{
			Code:         "WELCOME25",
			DiscountType: coupon.DiscountPercentage,
			Value:        decimal.NewFromInt(25),
			MinOrder:     decimal.NewFromInt(1000),
			MaxDiscount:  &maxWelcome,
			UsageLimit:   200,
			ExpiresAt:    &in12Months,
			Active:       true,
		},
	}

	for _, c := range coupons {
		if err := repo.Create(ctx, c); err != nil {
			return errors.Wrapf(err, "insert coupon %s", c.Code)
		}

		slog.Info("inserted coupon", slog.String("code", c.Code))
	}

	return nil
}
