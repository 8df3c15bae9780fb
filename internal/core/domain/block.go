package domain

import "time"

// BlockSnapshot is the part of the latest block the monitor cares about.
type BlockSnapshot struct {
	Height int64
	Time   time.Time

	// Signers is the set of validator addresses in the block's last commit.
	// A nil set means the node response carried no signature list at all.
	Signers map[string]struct{}
}

// NewBlockSnapshot builds a snapshot from a raw signer list. A nil list
// yields a nil signer set.
func NewBlockSnapshot(height int64, blockTime time.Time, signers []string) *BlockSnapshot {
	snap := &BlockSnapshot{
		Height: height,
		Time:   blockTime,
	}
	if signers != nil {
		snap.Signers = make(map[string]struct{}, len(signers))
		for _, addr := range signers {
			snap.Signers[addr] = struct{}{}
		}
	}
	return snap
}

// SignedBy reports whether address is among the block signers. Addresses are
// compared byte for byte.
func (b *BlockSnapshot) SignedBy(address string) bool {
	_, ok := b.Signers[address]
	return ok
}
