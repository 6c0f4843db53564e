package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required

	"auctionhouse-api/pkg/logging"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category_id TEXT NOT NULL DEFAULT '',
			item_condition TEXT NOT NULL,
			base_price INTEGER NOT NULL CHECK (base_price >= 0),
			images TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS auctions (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL UNIQUE REFERENCES items(id),
			seller_id TEXT NOT NULL,
			status TEXT NOT NULL,
			current_price INTEGER NOT NULL,
			min_increment INTEGER NOT NULL,
			buy_now_price INTEGER,
			start_time INTEGER,
			end_time INTEGER,
			duration_minutes INTEGER NOT NULL,
			anti_sniping INTEGER NOT NULL DEFAULT 1,
			winner_bid_id TEXT NOT NULL DEFAULT '',
			winner_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auctions_status_end ON auctions(status, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_auctions_seller ON auctions(seller_id)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id TEXT PRIMARY KEY,
			auction_id TEXT NOT NULL REFERENCES auctions(id),
			bidder_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids(auction_id, amount)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			user_id TEXT NOT NULL,
			auction_id TEXT NOT NULL REFERENCES auctions(id),
			created_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, auction_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			granted_by TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, role)
		)`,
	},
}

// NewSQLiteStore opens a SQLite-backed store.
// dbPath is the path to the SQLite database file (e.g., "./data/auctions.db")
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	// WAL for concurrent readers; busy_timeout so a second process waits instead of failing
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer; one connection also serializes bid transactions
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s, err := newSQLStore(db, sqliteDialect)
	if err != nil {
		return nil, err
	}
	logging.Component("store").Info("initialized SQLite store", "path", dbPath)
	return s, nil
}
