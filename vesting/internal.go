package vesting

import (
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

func validateNSetPool(ctx kalpsdk.TransactionContextInterface, pool *Pool) error {
	if pool.TgeTimestamp == 0 {
		return ErrCannotBeZero
	}
	if pool.SliceSeconds == 0 {
		return ErrInvalidConfiguration("slice length cannot be zero")
	}
	if pool.CliffSeconds > pool.VestingSeconds {
		return ErrInvalidConfiguration("cliff exceeds vesting length")
	}
	if pool.TgePercentBps > bpsDenominator {
		return ErrInvalidConfiguration("tge percent exceeds 10000 basis points")
	}
	if pool.VestingSeconds > pool.CliffSeconds && pool.SliceSeconds > pool.VestingSeconds-pool.CliffSeconds {
		return ErrInvalidConfiguration("slice length exceeds the linear release window")
	}
	if !IsMerkleRootValid(pool.MerkleRoot) {
		return ErrInvalidConfiguration("merkle root is not a 32 byte hex digest")
	}

	if _, err := parsePositiveAmount("totalAllocation", pool.TotalAllocation); err != nil {
		return NewCustomError(http.StatusBadRequest, "invalid total allocation", err)
	}

	if err := SetPool(ctx, pool); err != nil {
		return err
	}

	return EmitPoolConfigured(ctx, pool)
}
