package config

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BOOTSTRAP_ADMINS", "u1,u2")

	cfg, err := Load()
	assert.NoError(t, err)
	check.Equal(t, "sqlite", cfg.Store.Type)
	check.Equal(t, "memory", cfg.Cache.Type)
	check.Equal(t, 5*time.Minute, cfg.Auction.SnipingWindow)
	check.Equal(t, 3*time.Hour, cfg.Auction.RecentlyEndedWindow)
	check.Equal(t, []string{"u1", "u2"}, cfg.Auth.BootstrapAdmins)
	check.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	check.Equal(t, "auctionhouse", cfg.Cache.KeyPrefix)
}

func TestLoad_RequiresSecretAndKnownStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	check.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_TYPE", "mongodb")
	_, err = Load()
	check.Error(t, err)
}

func TestDSNs(t *testing.T) {
	s := StoreConfig{Host: "db", Name: "auctions", User: "app", Password: "pw", SSLMode: "disable"}
	check.Equal(t, "postgres://app:pw@db:5432/auctions?sslmode=disable", s.PostgresDSN())
	check.Equal(t, "app:pw@tcp(db:3306)/auctions?parseTime=true&clientFoundRows=true", s.MySQLDSN())
}
