//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
	"github.com/Alex240101/oxapampa/internal/infrastructure/migration"
	"github.com/Alex240101/oxapampa/migrations"
)

// startPostgres runs a disposable PostgreSQL with the embedded migrations
// applied.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("oxapampa_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	gdb, err := db.DB()
	require.NoError(t, err)
	gdb.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = gdb.Close() })
	return db
}

func TestPostgres_ConcurrentReservationsOfOneNumber(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	products := NewGormProductRepository(db)
	saleRepo := NewGormSaleRepository(db)
	docs := NewGormDocumentRepository(db)

	hammer := seedProduct(t, products, "MART-01", "Martillo", "100", "1")
	sale := sales.NewSale(counterCustomer(), "caja1")
	require.NoError(t, sale.AddItem(hammer.ID, hammer.Code, hammer.Name, hammer.Unit, dec("1"), valueobject.NewMoneyPEN(dec("10.00"))))
	require.NoError(t, saleRepo.Register(ctx, sale))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		others    []error
	)
	pending := make([]*invoicing.FiscalDocument, writers)
	for i := range pending {
		pending[i] = newReservedDocument(t, sale.ID, "B001", 1)
	}
	start := make(chan struct{})
	for _, doc := range pending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := docs.Reserve(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			var conflict *invoicing.NumberingConflictError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &conflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)

	highest, err := docs.MaxNumber(ctx, "B001")
	require.NoError(t, err)
	assert.Equal(t, 1, highest)
}

func TestPostgres_ConcurrentSalesNeverOversell(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	products := NewGormProductRepository(db)
	saleRepo := NewGormSaleRepository(db)

	cable := seedProduct(t, products, "CAB-25", "Cable 2.5mm", "3", "0")

	const buyers = 6
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		sold         int
		insufficient int
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale := sales.NewSale(counterCustomer(), "caja1")
			if err := sale.AddItem(cable.ID, cable.Code, cable.Name, cable.Unit, dec("1"), valueobject.NewMoneyPEN(dec("2.50"))); err != nil {
				t.Error(err)
				return
			}
			err := saleRepo.Register(ctx, sale)

			mu.Lock()
			defer mu.Unlock()
			var domainErr *shared.DomainError
			switch {
			case err == nil:
				sold++
			case errors.As(err, &domainErr) && domainErr.Code == shared.CodeInsufficientStock:
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, sold)
	assert.Equal(t, buyers-3, insufficient)

	stored, err := products.FindByID(ctx, cable.ID)
	require.NoError(t, err)
	assert.True(t, stored.Stock.IsZero(), "stock = %s", stored.Stock)
}
