package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/brocaar/moca-monitor/internal/logging"
	"github.com/brocaar/moca-monitor/internal/moca"
)

// PhyRateMeasurement represents the PHY rate of one directed link, sampled
// during one poll cycle.
type PhyRateMeasurement struct {
	ID         int64       `db:"id" json:"-"`
	Adapter    string      `db:"adapter" json:"adapter"`
	PolledAt   time.Time   `db:"polled_at" json:"polled_at"`
	FromNode   moca.NodeID `db:"from_node" json:"from_node"`
	ToNode     moca.NodeID `db:"to_node" json:"to_node"`
	RateMbps   uint32      `db:"rate_mbps" json:"rate_mbps"`
	VLRateMbps uint32      `db:"vl_rate_mbps" json:"vl_rate_mbps"`
}

// NodeMeasurement represents the per-node values of one poll cycle.
type NodeMeasurement struct {
	ID          int64        `db:"id" json:"-"`
	Adapter     string       `db:"adapter" json:"adapter"`
	PolledAt    time.Time    `db:"polled_at" json:"polled_at"`
	Node        moca.NodeID  `db:"node" json:"node"`
	GCDMbps     uint32       `db:"gcd_mbps" json:"gcd_mbps"`
	MocaVersion moca.Version `db:"moca_version" json:"moca_version"`
}

// RateStats summarizes a series of rate samples.
type RateStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// CreatePhyRateMeasurements stores the given link measurements.
func CreatePhyRateMeasurements(ctx context.Context, db sqlx.Ext, items []PhyRateMeasurement) error {
	for _, item := range items {
		_, err := db.Exec(`
			insert into phy_rate_measurement (
				adapter,
				polled_at,
				from_node,
				to_node,
				rate_mbps,
				vl_rate_mbps
			) values ($1, $2, $3, $4, $5, $6)`,
			item.Adapter,
			item.PolledAt,
			item.FromNode,
			item.ToNode,
			item.RateMbps,
			item.VLRateMbps,
		)
		if err != nil {
			return handlePSQLError(err, "insert error")
		}
	}

	log.WithFields(log.Fields{
		"count":  len(items),
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Debug("storage: phy-rate measurements created")

	return nil
}

// CreateNodeMeasurements stores the given node measurements.
func CreateNodeMeasurements(ctx context.Context, db sqlx.Ext, items []NodeMeasurement) error {
	for _, item := range items {
		_, err := db.Exec(`
			insert into node_measurement (
				adapter,
				polled_at,
				node,
				gcd_mbps,
				moca_version
			) values ($1, $2, $3, $4, $5)`,
			item.Adapter,
			item.PolledAt,
			item.Node,
			item.GCDMbps,
			item.MocaVersion,
		)
		if err != nil {
			return handlePSQLError(err, "insert error")
		}
	}

	log.WithFields(log.Fields{
		"count":  len(items),
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Debug("storage: node measurements created")

	return nil
}

// GetPhyRateMeasurements returns the measurements for the given link,
// within the [start, end] window, ordered by poll time.
func GetPhyRateMeasurements(ctx context.Context, db sqlx.Queryer, adapter string, fromNode, toNode moca.NodeID, start, end time.Time) ([]PhyRateMeasurement, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}

	var items []PhyRateMeasurement
	err := sqlx.Select(db, &items, `
		select
			*
		from
			phy_rate_measurement
		where
			adapter = $1
			and from_node = $2
			and to_node = $3
			and polled_at >= $4
			and polled_at <= $5
		order by
			polled_at`,
		adapter,
		fromNode,
		toNode,
		start,
		end,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	return items, nil
}

// GetNodeMeasurements returns the measurements for the given node, within
// the [start, end] window, ordered by poll time.
func GetNodeMeasurements(ctx context.Context, db sqlx.Queryer, adapter string, node moca.NodeID, start, end time.Time) ([]NodeMeasurement, error) {
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}

	var items []NodeMeasurement
	err := sqlx.Select(db, &items, `
		select
			*
		from
			node_measurement
		where
			adapter = $1
			and node = $2
			and polled_at >= $3
			and polled_at <= $4
		order by
			polled_at`,
		adapter,
		node,
		start,
		end,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	return items, nil
}

// CalculateRateStats summarizes the given rate samples.
func CalculateRateStats(values []float64) RateStats {
	if len(values) == 0 {
		return RateStats{}
	}

	mean, stdDev := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		// the sample standard deviation is undefined for a single value
		stdDev = 0
	}

	return RateStats{
		Count:  len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: stdDev,
	}
}
