// Command seed-db loads the product catalog, a starter coupon set, and an
// admin account into the database. Intended for development and demo
// environments; every write is an upsert so re-running is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/repository"
)

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
		devToken      string
		customerToken string
		sessionPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@storefront.local", "admin account email")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or STORE_SEED_ADMIN_PASSWORD env)")
	flag.StringVar(&devToken, "dev-token", "", "optional session token to mint for the admin account")
	flag.StringVar(&customerToken, "customer-token", "", "optional session token to mint for a demo customer account")
	flag.StringVar(&sessionPepper, "session-pepper", "", "HMAC pepper for session hashing (or STORE_SESSION_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STORE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}
	if sessionPepper == "" {
		sessionPepper = os.Getenv("STORE_SESSION_PEPPER")
	}
	if (devToken != "" || customerToken != "") && sessionPepper == "" {
		slog.Error("session pepper is required to mint tokens: set --session-pepper or STORE_SESSION_PEPPER")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword, devToken, customerToken, sessionPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword, devToken, customerToken, pepper string) error {
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

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	adminID, err := seedUser(ctx, pool, adminEmail, adminPassword, "Administrator", true)
	if err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	if devToken != "" {
		if err := seedSession(ctx, pool, adminID, devToken, pepper); err != nil {
			return errors.Wrap(err, "seed dev session")
		}
	}

	if customerToken != "" {
		customerID, err := seedUser(ctx, pool, "customer@storefront.local", uuid.New().String(), "Demo Customer", false)
		if err != nil {
			return errors.Wrap(err, "seed customer user")
		}
		if err := seedSession(ctx, pool, customerID, customerToken, pepper); err != nil {
			return errors.Wrap(err, "seed customer session")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	const q = `INSERT INTO products (id, name, price, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, image_url = EXCLUDED.image_url`

	for _, p := range products {
		if _, err := pool.Exec(ctx, q, p.ID, p.Name, p.Price, p.Image); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding starter coupons")

	coupons := []struct {
		code       string
		pct        decimal.Decimal
		usageLimit int
	}{
		{"WELCOME10", decimal.NewFromInt(10), 0},
		{"FLAT25", decimal.NewFromInt(25), 100},
	}

	const q = `INSERT INTO coupons (id, code, discount_pct, active, usage_limit)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (code) DO UPDATE SET discount_pct = EXCLUDED.discount_pct, active = TRUE, usage_limit = EXCLUDED.usage_limit`

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, q, uuid.New().String(), c.code, c.pct, c.usageLimit); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

func seedUser(ctx context.Context, pool *pgxpool.Pool, email, password, name string, isAdmin bool) (string, error) {
	slog.Info("seeding account", slog.String("email", email), slog.Bool("admin", isAdmin))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	id := uuid.New().String()
	const q = `INSERT INTO users (id, email, password, name, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET password = EXCLUDED.password, is_admin = EXCLUDED.is_admin
		RETURNING id`

	if err := pool.QueryRow(ctx, q, id, email, string(hash), name, isAdmin).Scan(&id); err != nil {
		return "", errors.Wrap(err, "upsert user")
	}

	slog.Info("upserted user", slog.String("id", id), slog.String("email", email))
	return id, nil
}

func seedSession(ctx context.Context, pool *pgxpool.Pool, userID, token, pepper string) error {
	slog.Info("minting dev session", slog.String("user_id", userID))

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	const q = `INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at`

	if _, err := pool.Exec(ctx, q, auth.HashToken([]byte(pepper), token), userID, expiresAt); err != nil {
		return errors.Wrap(err, "upsert session")
	}

	slog.Info("dev session ready", slog.Time("expires_at", expiresAt))
	return nil
}
