// Package migrations contains database migration definitions and
// functionality for the local sync store.
package migrations

import (
	"context"
	"fmt"
	"sync"

	migrator "github.com/cybertec-postgresql/pgx-migrator"
	"github.com/jackc/pgx/v5"
)

// syncColumns are the bookkeeping columns shared by every entity table.
const syncColumns = `
	local_id bigserial PRIMARY KEY,
	remote_id text UNIQUE,
	updated_at timestamp with time zone NOT NULL DEFAULT now(),
	deleted_at timestamp with time zone,
	sync_status text NOT NULL DEFAULT 'PENDING_SYNC'`

// migrations holds function returning all upgrade migrations needed
var migrations func() migrator.Option = func() migrator.Option {
	return migrator.Migrations(
		&migrator.Migration{
			Name: "001_identity_map_and_cursors",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `
					-- Bidirectional local id <-> remote id mapping.
					-- Both directions are unique per entity type.
					CREATE TABLE identity_map (
						entity_type text NOT NULL,
						local_id bigint NOT NULL,
						remote_id text NOT NULL,
						created_at timestamp with time zone NOT NULL DEFAULT now(),
						PRIMARY KEY (entity_type, local_id),
						UNIQUE (entity_type, remote_id)
					);

					-- Last successful pull per entity type.
					CREATE TABLE sync_cursor (
						entity_type text PRIMARY KEY,
						last_pull timestamp with time zone NOT NULL
					);
				`)
				return err
			},
		},
		&migrator.Migration{
			Name: "002_entity_tables",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, fmt.Sprintf(`
					CREATE TABLE users (%[1]s,
						name text NOT NULL,
						email text NOT NULL
					);
					CREATE TABLE groups (%[1]s,
						name text NOT NULL,
						currency text NOT NULL,
						invite_code text NOT NULL DEFAULT ''
					);
					CREATE TABLE preferences (%[1]s,
						user_local_id bigint NOT NULL REFERENCES users(local_id),
						locale text NOT NULL DEFAULT '',
						hide_balances boolean NOT NULL DEFAULT false
					);
					CREATE TABLE members (%[1]s,
						group_local_id bigint NOT NULL REFERENCES groups(local_id),
						user_local_id bigint NOT NULL REFERENCES users(local_id),
						role text NOT NULL DEFAULT 'member',
						joined_at timestamp with time zone NOT NULL
					);
					CREATE TABLE accounts (%[1]s,
						user_local_id bigint NOT NULL REFERENCES users(local_id),
						name text NOT NULL,
						iban text NOT NULL DEFAULT '',
						provider text NOT NULL DEFAULT '',
						needs_reauth boolean NOT NULL DEFAULT false,
						cached_logo_path text NOT NULL DEFAULT ''
					);
					CREATE TABLE transactions (%[1]s,
						account_local_id bigint NOT NULL REFERENCES accounts(local_id),
						amount numeric NOT NULL,
						currency text NOT NULL,
						description text NOT NULL DEFAULT '',
						booked_at timestamp with time zone NOT NULL
					);
					CREATE TABLE payments (%[1]s,
						group_local_id bigint NOT NULL REFERENCES groups(local_id),
						payer_local_id bigint NOT NULL REFERENCES members(local_id),
						transaction_local_id bigint REFERENCES transactions(local_id),
						amount numeric NOT NULL,
						currency text NOT NULL,
						note text NOT NULL DEFAULT '',
						paid_at timestamp with time zone NOT NULL,
						receipt_path text NOT NULL DEFAULT ''
					);
					CREATE TABLE conversions (%[1]s,
						payment_local_id bigint NOT NULL REFERENCES payments(local_id),
						rate numeric NOT NULL,
						amount numeric NOT NULL,
						currency text NOT NULL,
						rated_at timestamp with time zone NOT NULL
					);
				`, syncColumns))
				return err
			},
		},
		&migrator.Migration{
			Name: "003_status_indexes",
			Func: func(ctx context.Context, tx pgx.Tx) error {
				// The push phase selects by status on every pass.
				_, err := tx.Exec(ctx, `
					CREATE INDEX idx_users_status ON users(sync_status);
					CREATE INDEX idx_groups_status ON groups(sync_status);
					CREATE INDEX idx_preferences_status ON preferences(sync_status);
					CREATE INDEX idx_members_status ON members(sync_status);
					CREATE INDEX idx_accounts_status ON accounts(sync_status);
					CREATE INDEX idx_transactions_status ON transactions(sync_status);
					CREATE INDEX idx_payments_status ON payments(sync_status);
					CREATE INDEX idx_conversions_status ON conversions(sync_status);
				`)
				return err
			},
		},
		// adding new migration here

		// &migrator.Migration{
		// 	Name: "Short description of a migration",
		// 	Func: func(ctx context.Context, tx pgx.Tx) error {
		// 		...
		// 	},
		// },
	)
}

var (
	migratorInstance *migrator.Migrator
	once             sync.Once
)

// getMigrator returns a singleton migrator instance
func getMigrator() (*migrator.Migrator, error) {
	var err error
	once.Do(func() {
		migratorInstance, err = migrator.New(
			migrations(),
			migrator.TableName("syncengine_migrations"),
		)
	})
	return migratorInstance, err
}

// Apply applies all pending migrations to the database
func Apply(ctx context.Context, conn *pgx.Conn) error {
	m, err := getMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Migrate(ctx, conn); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// NeedsUpgrade checks if the database needs migration
func NeedsUpgrade(ctx context.Context, conn *pgx.Conn) (bool, error) {
	m, err := getMigrator()
	if err != nil {
		return false, fmt.Errorf("failed to create migrator: %w", err)
	}

	needUpgrade, err := m.NeedUpgrade(ctx, conn)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}

	return needUpgrade, nil
}
