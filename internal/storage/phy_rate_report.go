package storage

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/logging"
	"github.com/brocaar/moca-monitor/internal/moca"
)

const phyRateReportKeyTempl = "moca:monitor:report:%s"

// SavePhyRateReport stores the given report as the latest snapshot for the
// adapter. The snapshot expires after the configured TTL so that stale data
// does not outlive a stopped poller.
func SavePhyRateReport(ctx context.Context, adapter string, report moca.Report) error {
	b, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal report error")
	}

	key := GetRedisKey(phyRateReportKeyTempl, adapter)
	if err := RedisClient().Set(ctx, key, b, snapshotTTL).Err(); err != nil {
		return errors.Wrap(err, "save report error")
	}

	log.WithFields(log.Fields{
		"adapter": adapter,
		"ctx_id":  ctx.Value(logging.ContextIDKey),
	}).Info("storage: phy-rate report saved")

	return nil
}

// GetPhyRateReport returns the latest stored report for the given adapter.
func GetPhyRateReport(ctx context.Context, adapter string) (moca.Report, error) {
	var report moca.Report

	key := GetRedisKey(phyRateReportKeyTempl, adapter)
	val, err := RedisClient().Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return report, ErrDoesNotExist
		}
		return report, errors.Wrap(err, "get report error")
	}

	if err := json.Unmarshal(val, &report); err != nil {
		return report, errors.Wrap(err, "unmarshal report error")
	}

	return report, nil
}

// DeletePhyRateReport deletes the stored report for the given adapter.
func DeletePhyRateReport(ctx context.Context, adapter string) error {
	key := GetRedisKey(phyRateReportKeyTempl, adapter)
	val, err := RedisClient().Del(ctx, key).Result()
	if err != nil {
		return errors.Wrap(err, "delete report error")
	}
	if val == 0 {
		return ErrDoesNotExist
	}

	log.WithField("adapter", adapter).Info("storage: phy-rate report deleted")
	return nil
}
