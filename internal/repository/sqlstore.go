package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/model"
)

// SQLStore implements Store over database/sql. The dialect decides
// placeholders, row locking and schema; the queries themselves are shared.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ Store = (*SQLStore)(nil)

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// migrate runs the dialect schema. Statements are idempotent.
func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migration failed: %w", s.dialect.name, err)
		}
	}
	return nil
}

// Dialect returns the backend name.
func (s *SQLStore) Dialect() string {
	return s.dialect.name
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the repository connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// CreateListing inserts the item and its auction in one transaction so that
// an item never exists without its auction.
func (s *SQLStore) CreateListing(ctx context.Context, item model.Item, a model.Auction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO items (id, seller_id, title, description, category_id, item_condition,
			base_price, images, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		item.ID, item.SellerID, item.Title, item.Description, item.CategoryID, string(item.Condition),
		toCents(item.BasePrice), encodeImages(item.Images), toMillis(item.CreatedAt), toMillis(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO auctions (id, item_id, seller_id, status, current_price, min_increment,
			buy_now_price, start_time, end_time, duration_minutes, anti_sniping,
			winner_bid_id, winner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.ItemID, a.SellerID, string(a.Status), toCents(a.CurrentPrice), toCents(a.MinIncrement),
		nullCents(a.BuyNowPrice), nullMillis(a.StartTime), nullMillis(a.EndTime), a.DurationMinutes,
		boolInt(a.AntiSniping), a.WinnerBidID, a.WinnerID, toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAuction returns the auction with the given id.
func (s *SQLStore) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	return s.getAuction(ctx, s.db, id, "")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLStore) getAuction(ctx context.Context, q queryer, id, lock string) (*model.Auction, error) {
	a, err := scanAuction(q.QueryRowContext(ctx,
		s.q(`SELECT `+auctionColumns+` FROM auctions a WHERE a.id = ?`+lock), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// GetItem returns the item with the given id.
func (s *SQLStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var r itemRow
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+itemColumns+` FROM items i WHERE i.id = ?`), id).
		Scan(r.fields()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return r.model(), nil
}

// GetListing returns an auction joined with its item.
func (s *SQLStore) GetListing(ctx context.Context, auctionID string) (*model.Listing, error) {
	l, err := scanListing(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+auctionColumns+`, `+itemColumns+`
		FROM auctions a JOIN items i ON i.id = a.item_id
		WHERE a.id = ?`), auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// ListListings returns listings matching the filter, newest first.
func (s *SQLStore) ListListings(ctx context.Context, f model.AuctionFilter) ([]model.Listing, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		where = append(where, "a.status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.SellerID != "" {
		where = append(where, "a.seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.EndedSince != nil {
		where = append(where, "(a.status <> 'ended' OR a.end_time >= ?)")
		args = append(args, toMillis(*f.EndedSince))
	}

	query := `SELECT ` + auctionColumns + `, ` + itemColumns + `
		FROM auctions a JOIN items i ON i.id = a.item_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id LIMIT ? OFFSET ?"
	args = append(args, limitOrDefault(f.Limit), max(f.Offset, 0))

	return s.queryListings(ctx, query, args...)
}

func (s *SQLStore) queryListings(ctx context.Context, query string, args ...any) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateItem stores seller-editable item metadata. The base price is never rewritten.
func (s *SQLStore) UpdateItem(ctx context.Context, item model.Item) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE items SET title = ?, description = ?, category_id = ?, item_condition = ?,
			images = ?, updated_at = ?
		WHERE id = ? AND seller_id = ?`),
		item.Title, item.Description, item.CategoryID, string(item.Condition),
		encodeImages(item.Images), toMillis(item.UpdatedAt), item.ID, item.SellerID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return auction.ErrNotFound
	}
	return nil
}

// UpdateStatusIf writes the lifecycle fields of next only if the stored
// status is still expected.
func (s *SQLStore) UpdateStatusIf(ctx context.Context, expected model.Status, next model.Auction) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE auctions SET status = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		string(next.Status), nullMillis(next.StartTime), nullMillis(next.EndTime), toMillis(next.UpdatedAt),
		next.ID, string(expected))
	if err != nil {
		return false, fmt.Errorf("failed to update auction status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ApplyBid appends the bid and moves the auction with a compare-and-set on
// the price and end time the decision was made against. Both writes commit
// together or not at all.
func (s *SQLStore) ApplyBid(ctx context.Context, c BidCommit) (*model.Auction, error) {
	d := c.Decision
	now := c.Bid.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	set := "current_price = ?, end_time = ?, updated_at = ?"
	args := []any{toCents(d.NewPrice), toMillis(d.NewEndTime), toMillis(now)}
	if d.EndsAuction {
		set += ", status = ?, winner_bid_id = ?, winner_id = ?"
		args = append(args, string(model.StatusEnded), c.Bid.ID, c.Bid.BidderID)
	}
	args = append(args, c.Bid.AuctionID, string(model.StatusLive),
		toCents(d.PreviousPrice), toMillis(d.PreviousEnd), toMillis(now))

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE auctions SET `+set+`
		WHERE id = ? AND status = ? AND current_price = ? AND end_time = ? AND end_time > ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update auction price: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, auction.ErrConcurrentBid
	}

	_, err = tx.ExecContext(ctx, s.q(`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?)`),
		c.Bid.ID, c.Bid.AuctionID, c.Bid.BidderID, toCents(c.Bid.Amount), toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}

	updated, err := s.getAuction(ctx, tx, c.Bid.AuctionID, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// ListBids returns the bids on an auction, highest first.
func (s *SQLStore) ListBids(ctx context.Context, auctionID string, limit, offset int) ([]model.Bid, error) {
	return s.queryBids(ctx, s.db, `SELECT `+bidColumns+` FROM bids WHERE auction_id = ?
		ORDER BY amount DESC, created_at ASC, id ASC LIMIT ? OFFSET ?`,
		auctionID, limitOrDefault(limit), max(offset, 0))
}

// CountBids returns the number of bids on an auction.
func (s *SQLStore) CountBids(ctx context.Context, auctionID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM bids WHERE auction_id = ?`), auctionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return count, nil
}

// ListBidsByBidder returns a bidder's bids, newest first.
func (s *SQLStore) ListBidsByBidder(ctx context.Context, bidderID string, limit, offset int) ([]model.Bid, error) {
	return s.queryBids(ctx, s.db, `SELECT `+bidColumns+` FROM bids WHERE bidder_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		bidderID, limitOrDefault(limit), max(offset, 0))
}

func (s *SQLStore) queryBids(ctx context.Context, q queryer, query string, args ...any) ([]model.Bid, error) {
	rows, err := q.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

// ListExpired returns ids of live auctions whose end time is at or before now,
// oldest first.
func (s *SQLStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id FROM auctions WHERE status = ? AND end_time <= ?
		ORDER BY end_time ASC LIMIT ?`),
		string(model.StatusLive), toMillis(now), limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Finalize ends an expired live auction and records the winning bid. The
// update is conditional on the auction still being live and expired, so
// concurrent sweepers finalize each auction exactly once.
func (s *SQLStore) Finalize(ctx context.Context, auctionID string, now time.Time) (*model.Auction, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getAuction(ctx, tx, auctionID, s.dialect.forUpdate)
	if err != nil {
		return nil, false, err
	}
	if current.Status != model.StatusLive || current.EndTime == nil || now.Before(*current.EndTime) {
		return current, false, nil
	}

	bids, err := s.queryBids(ctx, tx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = ?`, auctionID)
	if err != nil {
		return nil, false, err
	}
	ended, _, err := auction.Finalize(*current, bids, now)
	if err != nil {
		return nil, false, err
	}

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE auctions SET status = ?, winner_bid_id = ?, winner_id = ?, updated_at = ?
		WHERE id = ? AND status = ? AND end_time <= ?`),
		string(ended.Status), ended.WinnerBidID, ended.WinnerID, toMillis(now),
		auctionID, string(model.StatusLive), toMillis(now))
	if err != nil {
		return nil, false, fmt.Errorf("failed to finalize auction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return current, false, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	ended.UpdatedAt = fromMillis(toMillis(now))
	return &ended, true, nil
}

// Stats returns marketplace counters.
func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{AuctionsByStatus: map[model.Status]int64{}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM auctions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count auctions: %w", err)
	}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan auction count: %w", err)
		}
		stats.AuctionsByStatus[model.Status(status)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count auctions: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids`).Scan(&stats.TotalBids); err != nil {
		return nil, fmt.Errorf("failed to count bids: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&stats.TotalItems); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return stats, nil
}

// HasRole reports whether userID holds role.
func (s *SQLStore) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?`),
		userID, string(role)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return count > 0, nil
}

// GrantRole records a role assignment. Granting a held role is a no-op.
func (s *SQLStore) GrantRole(ctx context.Context, ra model.RoleAssignment) error {
	_, err := s.db.ExecContext(ctx, s.q(s.dialect.insertIgnore("user_roles", "user_id, role, granted_by, created_at", 4)),
		ra.UserID, string(ra.Role), ra.GrantedBy, toMillis(ra.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// RevokeRole removes a role assignment. Revoking an absent role is a no-op.
func (s *SQLStore) RevokeRole(ctx context.Context, userID string, role model.Role) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM user_roles WHERE user_id = ? AND role = ?`),
		userID, string(role))
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

// ListRoles returns every role held by userID.
func (s *SQLStore) ListRoles(ctx context.Context, userID string) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, model.Role(role))
	}
	return roles, rows.Err()
}

// UpsertProfile inserts a profile or refreshes its editable fields.
func (s *SQLStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	_, err := s.db.ExecContext(ctx, s.q(s.dialect.upsertProfile()),
		p.ID, p.Username, p.Bio, p.AvatarURL, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile with the given id.
func (s *SQLStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var (
		p                    model.Profile
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, username, bio, avatar_url, created_at, updated_at FROM profiles WHERE id = ?`), id).
		Scan(&p.ID, &p.Username, &p.Bio, &p.AvatarURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

// AddWatch adds an auction to a user's watchlist.
func (s *SQLStore) AddWatch(ctx context.Context, e model.WatchlistEntry) error {
	_, err := s.db.ExecContext(ctx, s.q(s.dialect.insertIgnore("watchlist", "user_id, auction_id, created_at", 3)),
		e.UserID, e.AuctionID, toMillis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add watch: %w", err)
	}
	return nil
}

// RemoveWatch removes an auction from a user's watchlist.
func (s *SQLStore) RemoveWatch(ctx context.Context, userID, auctionID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM watchlist WHERE user_id = ? AND auction_id = ?`),
		userID, auctionID)
	if err != nil {
		return fmt.Errorf("failed to remove watch: %w", err)
	}
	return nil
}

// ListWatched returns the listings a user watches, most recently watched first.
func (s *SQLStore) ListWatched(ctx context.Context, userID string) ([]model.Listing, error) {
	return s.queryListings(ctx, `SELECT `+auctionColumns+`, `+itemColumns+`
		FROM watchlist w
		JOIN auctions a ON a.id = w.auction_id
		JOIN items i ON i.id = a.item_id
		WHERE w.user_id = ?
		ORDER BY w.created_at DESC, a.id`, userID)
}

// IsWatching reports whether userID watches auctionID.
func (s *SQLStore) IsWatching(ctx context.Context, userID, auctionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM watchlist WHERE user_id = ? AND auction_id = ?`),
		userID, auctionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check watch: %w", err)
	}
	return count > 0, nil
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

func limitOrDefault(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
