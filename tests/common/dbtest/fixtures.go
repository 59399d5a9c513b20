//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Reference rows inserted by SeedReferenceData.
var (
	ResourceID      = uuid.MustParse("0b6f7c1e-2a34-4d58-9e61-7f8a9b0c1d20")
	CustomerID      = uuid.MustParse("1c7a8d2f-3b45-4e69-8f72-8a9b0c1d2e30")
	OtherCustomerID = uuid.MustParse("2d8b9e3a-4c56-4f7a-9a83-9b0c1d2e3f40")
	ServiceID       = uuid.MustParse("3e9c0f4b-5d67-4a8b-8b94-0c1d2e3f4a50")
)

const (
	ServiceDurationMin = 60
	ServicePriceCents  = 4500
	OpensAtMin         = 9 * 60
	ClosesAtMin        = 18 * 60
)

func CreateTestCustomer(t *testing.T, db DBLike, name, email string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	ctx := context.Background()
	tag, err := db.Exec(ctx, "INSERT INTO customers (id, name, email) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING",
		id, name, email)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		require.NoError(t, db.QueryRow(ctx, "SELECT id FROM customers WHERE email = $1", email).Scan(&id))
	}
	return id
}

func CreateTestService(t *testing.T, db DBLike, resourceID uuid.UUID, name string, durationMin int, priceCents int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO services (id, resource_id, name, duration_min, price_cents) VALUES ($1, $2, $3, $4, $5)",
		id, resourceID, name, durationMin, priceCents)
	require.NoError(t, err)
	return id
}

func CountNotificationJobs(t *testing.T, db DBLike, topic string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM notification_jobs WHERE topic = $1", topic).Scan(&n)
	require.NoError(t, err)
	return n
}

func CountActiveBookings(t *testing.T, db DBLike, resourceID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM bookings WHERE resource_id = $1 AND status IN ('pending', 'confirmed', 'in_progress')",
		resourceID).Scan(&n)
	require.NoError(t, err)
	return n
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO resources (id, name, time_zone, opens_at_min, closes_at_min, lead_time_min)
		VALUES ($1, 'Chair 1', 'UTC', $2, $3, 0)
		ON CONFLICT (id) DO NOTHING;
	`, ResourceID, OpensAtMin, ClosesAtMin)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO customers (id, name, email, phone) VALUES
		    ($1, 'Hana Sato', 'hana.sato@example.com', '+81-90-1234-5678'),
		    ($2, 'Ken Ito', 'ken.ito@example.com', NULL)
		ON CONFLICT (id) DO NOTHING;
	`, CustomerID, OtherCustomerID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO services (id, resource_id, name, duration_min, price_cents, category)
		VALUES ($1, $2, 'Haircut', $3, $4, 'hair')
		ON CONFLICT (id) DO NOTHING;
	`, ServiceID, ResourceID, ServiceDurationMin, ServicePriceCents)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('atlas_schema_revisions')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
