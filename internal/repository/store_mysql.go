package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"auctionhouse-api/pkg/logging"
)

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlDialect = dialect{
	name:      "mysql",
	forUpdate: " FOR UPDATE",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			bio TEXT NOT NULL,
			avatar_url VARCHAR(512) NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS items (
			id VARCHAR(64) PRIMARY KEY,
			seller_id VARCHAR(64) NOT NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL,
			category_id VARCHAR(64) NOT NULL DEFAULT '',
			item_condition VARCHAR(16) NOT NULL,
			base_price BIGINT NOT NULL,
			images TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_items_seller (seller_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS auctions (
			id VARCHAR(64) PRIMARY KEY,
			item_id VARCHAR(64) NOT NULL UNIQUE,
			seller_id VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			current_price BIGINT NOT NULL,
			min_increment BIGINT NOT NULL,
			buy_now_price BIGINT NULL,
			start_time BIGINT NULL,
			end_time BIGINT NULL,
			duration_minutes INT NOT NULL,
			anti_sniping TINYINT NOT NULL DEFAULT 1,
			winner_bid_id VARCHAR(64) NOT NULL DEFAULT '',
			winner_id VARCHAR(64) NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_auctions_status_end (status, end_time),
			INDEX idx_auctions_seller (seller_id),
			FOREIGN KEY (item_id) REFERENCES items(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS bids (
			id VARCHAR(64) PRIMARY KEY,
			auction_id VARCHAR(64) NOT NULL,
			bidder_id VARCHAR(64) NOT NULL,
			amount BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_bids_auction (auction_id, amount),
			INDEX idx_bids_bidder (bidder_id, created_at),
			FOREIGN KEY (auction_id) REFERENCES auctions(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			user_id VARCHAR(64) NOT NULL,
			auction_id VARCHAR(64) NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, auction_id),
			FOREIGN KEY (auction_id) REFERENCES auctions(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id VARCHAR(64) NOT NULL,
			role VARCHAR(16) NOT NULL,
			granted_by VARCHAR(64) NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, role)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// NewMySQLStore opens a MySQL-backed store.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s, err := newSQLStore(db, mysqlDialect)
	if err != nil {
		return nil, err
	}
	logging.Component("store").Info("initialized MySQL store", "max_open", 25)
	return s, nil
}
