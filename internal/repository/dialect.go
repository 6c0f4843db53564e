package repository

import (
	"strconv"
	"strings"
)

// dialect captures the SQL differences between the supported backends.
type dialect struct {
	name      string
	numbered  bool   // $1, $2 placeholders instead of ?
	forUpdate string // row lock clause for read-modify-write transactions
	schema    []string
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertIgnore builds an INSERT that silently skips duplicate keys.
func (d dialect) insertIgnore(table, columns string, n int) string {
	values := placeholders(n)
	switch d.name {
	case "mysql":
		return "INSERT IGNORE INTO " + table + " (" + columns + ") VALUES (" + values + ")"
	case "sqlite":
		return "INSERT OR IGNORE INTO " + table + " (" + columns + ") VALUES (" + values + ")"
	default:
		return "INSERT INTO " + table + " (" + columns + ") VALUES (" + values + ") ON CONFLICT DO NOTHING"
	}
}

// upsertProfile inserts a profile or refreshes its editable fields.
func (d dialect) upsertProfile() string {
	insert := `INSERT INTO profiles (id, username, bio, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if d.name == "mysql" {
		return insert + ` ON DUPLICATE KEY UPDATE username = VALUES(username), bio = VALUES(bio),
			avatar_url = VALUES(avatar_url), updated_at = VALUES(updated_at)`
	}
	return insert + ` ON CONFLICT (id) DO UPDATE SET username = excluded.username, bio = excluded.bio,
		avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`
}

// placeholders returns n comma separated ? markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
