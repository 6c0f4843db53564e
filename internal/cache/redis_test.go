package cache

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestRedisCache_KeyPrefix(t *testing.T) {
	for _, prefix := range []string{"auctionhouse", "auctionhouse:"} {
		c := NewRedisCacheFromClient(nil, prefix)
		check.Equal(t, "auctionhouse:role:admin:u1", c.key("role:admin:u1"))
	}
}
