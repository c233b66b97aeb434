package vesting

import (
	"math/big"
)

// CalculateTgeUnlock is the portion of an allocation released the moment
// the schedule activates, floored to whole base units.
func CalculateTgeUnlock(allocation *big.Int, tgePercentBps uint64) *big.Int {
	if tgePercentBps == 0 {
		return big.NewInt(0)
	}

	unlock := new(big.Int).Mul(allocation, new(big.Int).SetUint64(tgePercentBps))
	return unlock.Div(unlock, big.NewInt(bpsDenominator))
}

// CalculateVestedAmount maps (schedule, allocation, now) to the cumulative
// vested amount. It is a step function: pre-TGE nothing, the TGE unlock
// through the cliff, then one linear increment per elapsed slice, and the
// full allocation once the vesting horizon passes. All arithmetic floors,
// so the schedule can never over-release.
func CalculateVestedAmount(pool *Pool, allocation *big.Int, now uint64) *big.Int {
	if now < pool.TgeTimestamp {
		return big.NewInt(0)
	}

	tgeAmount := CalculateTgeUnlock(allocation, pool.TgePercentBps)

	if now < pool.TgeTimestamp+pool.CliffSeconds {
		return tgeAmount
	}

	if now >= pool.TgeTimestamp+pool.VestingSeconds {
		// Full unlock clears any rounding residue left by the slices.
		return new(big.Int).Set(allocation)
	}

	totalSlices := (pool.VestingSeconds - pool.CliffSeconds) / pool.SliceSeconds
	if totalSlices == 0 {
		return tgeAmount
	}

	elapsed := now - pool.TgeTimestamp - pool.CliffSeconds
	sliceIndex := elapsed / pool.SliceSeconds
	if sliceIndex > totalSlices {
		sliceIndex = totalSlices
	}

	linearTotal := new(big.Int).Sub(allocation, tgeAmount)

	vested := new(big.Int).Mul(linearTotal, new(big.Int).SetUint64(sliceIndex))
	vested.Div(vested, new(big.Int).SetUint64(totalSlices))

	return vested.Add(vested, tgeAmount)
}
