package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Money is stored as integer cents and times as unix milliseconds so that
// every backend compares them exactly.

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func nullCents(d *decimal.Decimal) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toCents(*d), Valid: true}
}

func fromNullCents(n sql.NullInt64) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := fromCents(n.Int64)
	return &d
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeImages(images []string) string {
	if images == nil {
		images = []string{}
	}
	raw, _ := json.Marshal(images)
	return string(raw)
}

func decodeImages(raw string) []string {
	images := []string{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &images)
	}
	return images
}
