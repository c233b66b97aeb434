package vesting

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	ProofPositionLeft  = "left"
	ProofPositionRight = "right"
)

// LeafHash commits to one (beneficiary, allocation) pair. The allocation is
// the decimal string in base token units, exactly as committed off-chain.
func LeafHash(beneficiary, allocation string) []byte {
	leaf := sha256.Sum256([]byte(fmt.Sprintf("%s_%s", beneficiary, allocation)))
	return leaf[:]
}

// VerifyMembership walks the sibling-hash path from the (beneficiary,
// allocation) leaf and reports whether it reconstructs root. An empty proof
// is valid only for a single-leaf tree whose root is the leaf hash itself.
// Malformed proofs are reported as an error, not a panic; the claim path
// surfaces both outcomes as a rejected claim.
func VerifyMembership(root, beneficiary, allocation string, proof []ProofNode) (bool, error) {
	rootBytes, err := hex.DecodeString(root)
	if err != nil || len(rootBytes) != sha256.Size {
		return false, fmt.Errorf("malformed merkle root %s", root)
	}

	current := LeafHash(beneficiary, allocation)

	for _, node := range proof {
		sibling, err := hex.DecodeString(node.Hash)
		if err != nil || len(sibling) != sha256.Size {
			return false, fmt.Errorf("malformed proof node hash %s", node.Hash)
		}

		switch node.Position {
		case ProofPositionLeft:
			current = hashPair(sibling, current)
		case ProofPositionRight:
			current = hashPair(current, sibling)
		default:
			return false, fmt.Errorf("invalid proof node position %s", node.Position)
		}
	}

	return bytes.Equal(current, rootBytes), nil
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
