package code

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FlushReportCache deletes all cached phy-rate reports. Snapshots written
// by a previous release can not be assumed to unmarshal into the current
// report shape, so they are flushed once.
func FlushReportCache(redisClient redis.UniversalClient, keyPrefix string) error {
	keys, err := redisClient.Keys(context.Background(), keyPrefix+"moca:monitor:report:*").Result()
	if err != nil {
		return errors.Wrap(err, "get keys error")
	}

	if len(keys) != 0 {
		if err := redisClient.Del(context.Background(), keys...).Err(); err != nil {
			return errors.Wrap(err, "delete keys error")
		}
	}

	log.WithField("count", len(keys)).Info("migrations/code: phy-rate report cache flushed")

	return nil
}
