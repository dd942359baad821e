package odds

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Feed lê odds sugeridas publicadas por um provedor externo no Redis.
// O ledger trata o valor como entrada comum: nenhuma validação contra o feed.
type Feed struct {
	Rdb *redis.Client
}

func NewFeed(r *redis.Client) *Feed { return &Feed{Rdb: r} }

// Espera chave "odds:{category}:{eventID}:{selection}" => valor string, ex: "1.85"
func (f *Feed) SuggestedOdd(ctx context.Context, category, eventID, selection string) (float64, error) {
	key := fmt.Sprintf("odds:%s:%s:%s", category, eventID, selection)
	val, err := f.Rdb.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(val, 64)
}
