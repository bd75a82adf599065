package moca

import (
	"github.com/pkg/errors"
)

// topologyWords is the minimum local-info dump length. The words consumed
// are fixed offsets within the dump.
const topologyWords = 13

// NodeID identifies a node on the MoCA network. Valid ids are 0-15, one per
// bit of the active-node bitmask.
type NodeID uint8

// Topology describes the network as reported by the polled adapter's
// local-info registers.
type Topology struct {
	OwnNodeID      NodeID  `json:"own_node_id"`
	NCNodeID       NodeID  `json:"nc_node_id"`
	NetworkVersion Version `json:"network_version"`
	ActiveMask     uint16  `json:"active_mask"`
}

// DecodeTopology decodes a local-info dump. Own node id sits in the low byte
// of word 0, the network-coordinator id in the low byte of word 1, the
// network MoCA version in word 11 and the 16-bit active-node bitmask in
// word 12. Dumps shorter than 13 words fail with ErrMalformedTopology.
func DecodeTopology(dump RegisterDump) (Topology, error) {
	if len(dump) < topologyWords {
		return Topology{}, errors.Wrapf(ErrMalformedTopology, "dump has %d words, need %d", len(dump), topologyWords)
	}

	var (
		topo Topology
		err  error
	)

	read := func(i int) uint32 {
		if err != nil {
			return 0
		}
		var w uint32
		w, err = dump.Word(i)
		return w
	}

	topo.OwnNodeID = NodeID(read(0) & 0xff)
	topo.NCNodeID = NodeID(read(1) & 0xff)
	topo.NetworkVersion = Version(read(11) & 0xff)
	topo.ActiveMask = uint16(read(12) & 0xffff)

	if err != nil {
		return Topology{}, errors.Wrap(ErrMalformedTopology, err.Error())
	}

	return topo, nil
}

// ActiveNodes returns the active node ids in ascending order. The order fixes
// the row and column order of the rate matrix and the index order of the GCD
// vector.
func (t Topology) ActiveNodes() []NodeID {
	var nodes []NodeID
	for i := 0; i < 16; i++ {
		if t.ActiveMask&(1<<uint(i)) != 0 {
			nodes = append(nodes, NodeID(i))
		}
	}
	return nodes
}

// DecodeNodeVersion decodes one node's MoCA version byte from its net-info
// dump (word 4, low byte).
func DecodeNodeVersion(dump RegisterDump) (Version, error) {
	w, err := dump.Word(4)
	if err != nil {
		return 0, errors.Wrap(err, "read version word")
	}
	return Version(w & 0xff), nil
}
