package vesting_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/p2eengineering/gini-pool-vesting-contract/vesting"
	"github.com/stretchr/testify/require"
)

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// fourLeafTree commits four (beneficiary, allocation) pairs and returns the
// root plus a proof for each leaf index.
func fourLeafTree(pairs [4][2]string) (string, [4][]vesting.ProofNode) {
	leaves := make([][]byte, 4)
	for i, pair := range pairs {
		leaves[i] = vesting.LeafHash(pair[0], pair[1])
	}

	left := hashPair(leaves[0], leaves[1])
	right := hashPair(leaves[2], leaves[3])
	root := hashPair(left, right)

	proofs := [4][]vesting.ProofNode{
		{
			{Hash: hex.EncodeToString(leaves[1]), Position: vesting.ProofPositionRight},
			{Hash: hex.EncodeToString(right), Position: vesting.ProofPositionRight},
		},
		{
			{Hash: hex.EncodeToString(leaves[0]), Position: vesting.ProofPositionLeft},
			{Hash: hex.EncodeToString(right), Position: vesting.ProofPositionRight},
		},
		{
			{Hash: hex.EncodeToString(leaves[3]), Position: vesting.ProofPositionRight},
			{Hash: hex.EncodeToString(left), Position: vesting.ProofPositionLeft},
		},
		{
			{Hash: hex.EncodeToString(leaves[2]), Position: vesting.ProofPositionLeft},
			{Hash: hex.EncodeToString(left), Position: vesting.ProofPositionLeft},
		},
	}

	return hex.EncodeToString(root), proofs
}

func TestVerifyMembershipFourLeaves(t *testing.T) {
	t.Parallel()

	pairs := [4][2]string{
		{"0b87970433b22494faff1cc7a819e71bddc7880c", "1000000000000000000000"},
		{"1c98a81544c33595faff1cc7a819e71bddc7891d", "2000000000000000000000"},
		{"2da9b92655d44696faff1cc7a819e71bddc78a2e", "3000000000000000000000"},
		{"3ebaca3766e55797faff1cc7a819e71bddc78b3f", "4000000000000000000000"},
	}
	root, proofs := fourLeafTree(pairs)

	for i, pair := range pairs {
		ok, err := vesting.VerifyMembership(root, pair[0], pair[1], proofs[i])
		require.NoError(t, err)
		require.True(t, ok, "leaf %d rejected", i)
	}
}

func TestVerifyMembershipRejectsTamperedClaims(t *testing.T) {
	t.Parallel()

	pairs := [4][2]string{
		{"0b87970433b22494faff1cc7a819e71bddc7880c", "1000000000000000000000"},
		{"1c98a81544c33595faff1cc7a819e71bddc7891d", "2000000000000000000000"},
		{"2da9b92655d44696faff1cc7a819e71bddc78a2e", "3000000000000000000000"},
		{"3ebaca3766e55797faff1cc7a819e71bddc78b3f", "4000000000000000000000"},
	}
	root, proofs := fourLeafTree(pairs)

	// Inflate the allocation.
	ok, err := vesting.VerifyMembership(root, pairs[0][0], "9000000000000000000000", proofs[0])
	require.NoError(t, err)
	require.False(t, ok)

	// Present someone else's proof.
	ok, err = vesting.VerifyMembership(root, pairs[0][0], pairs[0][1], proofs[1])
	require.NoError(t, err)
	require.False(t, ok)

	// Swap the sibling order.
	flipped := []vesting.ProofNode{
		{Hash: proofs[0][0].Hash, Position: vesting.ProofPositionLeft},
		{Hash: proofs[0][1].Hash, Position: vesting.ProofPositionRight},
	}
	ok, err = vesting.VerifyMembership(root, pairs[0][0], pairs[0][1], flipped)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyMembershipSingleLeaf(t *testing.T) {
	t.Parallel()

	beneficiary := "0b87970433b22494faff1cc7a819e71bddc7880c"
	allocation := "100000000000000000000000"
	root := hex.EncodeToString(vesting.LeafHash(beneficiary, allocation))

	ok, err := vesting.VerifyMembership(root, beneficiary, allocation, nil)
	require.NoError(t, err)
	require.True(t, ok)

	// The degenerate case commits to exactly one pair.
	ok, err = vesting.VerifyMembership(root, beneficiary, "1", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyMembershipEmptyProofMultiLeaf(t *testing.T) {
	t.Parallel()

	pairs := [4][2]string{
		{"0b87970433b22494faff1cc7a819e71bddc7880c", "1"},
		{"1c98a81544c33595faff1cc7a819e71bddc7891d", "2"},
		{"2da9b92655d44696faff1cc7a819e71bddc78a2e", "3"},
		{"3ebaca3766e55797faff1cc7a819e71bddc78b3f", "4"},
	}
	root, _ := fourLeafTree(pairs)

	ok, err := vesting.VerifyMembership(root, pairs[0][0], pairs[0][1], nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyMembershipMalformedInput(t *testing.T) {
	t.Parallel()

	beneficiary := "0b87970433b22494faff1cc7a819e71bddc7880c"
	root := hex.EncodeToString(vesting.LeafHash(beneficiary, "1"))

	_, err := vesting.VerifyMembership("not-hex", beneficiary, "1", nil)
	require.Error(t, err)

	_, err = vesting.VerifyMembership("abcd", beneficiary, "1", nil)
	require.Error(t, err)

	_, err = vesting.VerifyMembership(root, beneficiary, "1", []vesting.ProofNode{
		{Hash: "zz", Position: vesting.ProofPositionLeft},
	})
	require.Error(t, err)

	_, err = vesting.VerifyMembership(root, beneficiary, "1", []vesting.ProofNode{
		{Hash: root, Position: "up"},
	})
	require.Error(t, err)
}
