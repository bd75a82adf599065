package moca

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/moca-monitor/internal/logging"
)

// RegisterSource fetches raw register dumps from one adapter. Implementations
// own authentication, CSRF tokens and transport-level retries; errors they
// return are transport errors, distinct from decode errors.
type RegisterSource interface {
	// LocalInfo returns the adapter's local-info registers (topology).
	LocalInfo(ctx context.Context) (RegisterDump, error)

	// NetInfo returns the net-info registers for the given node.
	NetInfo(ctx context.Context, node NodeID) (RegisterDump, error)

	// FMRInfo returns the fine measurement report for the nodes selected by
	// targetMask, encoded with the given format version (1 or 2).
	FMRInfo(ctx context.Context, targetMask uint16, format uint8) (RegisterDump, error)
}

// Report is the outcome of one successful poll cycle: the PHY rate matrix
// between all active nodes, the VL channel matrix and the per-node GCD
// rates, all in Mbps and indexed in Nodes order.
type Report struct {
	PolledAt       time.Time  `json:"polled_at"`
	OwnNodeID      NodeID     `json:"own_node_id"`
	NCNodeID       NodeID     `json:"nc_node_id"`
	NetworkVersion Version    `json:"network_version"`
	Nodes          []NodeID   `json:"nodes"`
	NodeVersions   []Version  `json:"node_versions"`
	Rates          [][]uint32 `json:"rates"`
	VLRates        [][]uint32 `json:"vl_rates"`
	GCDRates       []uint32   `json:"gcd_rates"`
}

// BuildReport runs one full decode cycle against the given source. A
// transport or topology failure on the first fetch fails the cycle with no
// partial result. Later failures degrade locally: a node whose net-info or
// FMR fetch fails contributes zero entries, a cell whose field decode fails
// becomes zero, and neither stops the rest of the matrix. A cancelled
// context always fails the cycle.
func BuildReport(ctx context.Context, src RegisterSource) (Report, error) {
	localInfo, err := src.LocalInfo(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "fetch local info")
	}

	topo, err := DecodeTopology(localInfo)
	if err != nil {
		return Report{}, err
	}

	nodes := topo.ActiveNodes()

	if topo.ActiveMask&(1<<uint(topo.NCNodeID)) == 0 {
		log.WithFields(log.Fields{
			"nc_node_id": topo.NCNodeID,
			"ctx_id":     ctx.Value(logging.ContextIDKey),
		}).Warning("moca: network coordinator missing from active bitmask")
	}

	versions := make(map[NodeID]Version, len(nodes))
	for _, n := range nodes {
		netInfo, err := src.NetInfo(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				return Report{}, errors.Wrap(err, "fetch net info")
			}
			log.WithError(err).WithFields(log.Fields{
				"node_id": n,
				"ctx_id":  ctx.Value(logging.ContextIDKey),
			}).Warning("moca: fetch net info failed, node version set to 0")
			continue
		}

		ver, err := DecodeNodeVersion(netInfo)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"node_id": n,
				"ctx_id":  ctx.Value(logging.ContextIDKey),
			}).Warning("moca: decode net info failed, node version set to 0")
			continue
		}
		versions[n] = ver
	}

	ncVer := versions[topo.NCNodeID]

	dumps := make(map[NodeID]RegisterDump, len(nodes))
	for _, n := range nodes {
		format := uint8(2)
		if minVersion(ncVer, versions[n]) < Version20 {
			format = 1
		}

		dump, err := src.FMRInfo(ctx, 1<<uint(n), format)
		if err != nil {
			if ctx.Err() != nil {
				return Report{}, errors.Wrap(err, "fetch fmr dump")
			}
			log.WithError(err).WithFields(log.Fields{
				"node_id": n,
				"format":  format,
				"ctx_id":  ctx.Value(logging.ContextIDKey),
			}).Warning("moca: fetch fmr dump failed, row decodes to zero")
			continue
		}
		dumps[n] = dump
	}

	report := Report{
		PolledAt:       time.Now().UTC(),
		OwnNodeID:      topo.OwnNodeID,
		NCNodeID:       topo.NCNodeID,
		NetworkVersion: topo.NetworkVersion,
		Nodes:          nodes,
		NodeVersions:   make([]Version, len(nodes)),
		Rates:          make([][]uint32, len(nodes)),
		VLRates:        make([][]uint32, len(nodes)),
		GCDRates:       make([]uint32, len(nodes)),
	}

	for i, n := range nodes {
		report.NodeVersions[i] = versions[n]
	}

	for r, row := range nodes {
		report.Rates[r] = make([]uint32, len(nodes))
		report.VLRates[r] = make([]uint32, len(nodes))

		rowVer := versions[row]
		dec := NewFieldDecoder(dumps[row])

		for c, col := range nodes {
			eff := EffectiveVersion(ncVer, rowVer, versions[col])

			field, err := dec.Next(eff)
			if err != nil {
				softDecodeErrorCounter().Inc()
				log.WithError(err).WithFields(log.Fields{
					"from_node": row,
					"to_node":   col,
					"ctx_id":    ctx.Value(logging.ContextIDKey),
				}).Debug("moca: field decode failed, cell set to zero")
			}

			report.Rates[r][c] = PrimaryRate(field, eff)
			report.VLRates[r][c] = SecondaryRate(field)

			if row == col {
				if p := SelfProfile(rowVer); p != ProfileUnknown {
					report.GCDRates[r] = p.Rate(field.GapPrimary, field.OfdmPrimary)
				}
			}
		}
	}

	return report, nil
}
