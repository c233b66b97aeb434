package vesting

import (
	"encoding/json"
	"fmt"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type PoolConfiguredEvent struct {
	PoolID          uint64 `json:"poolId"`
	TgeTimestamp    uint64 `json:"tgeTimestamp"`
	CliffSeconds    uint64 `json:"cliffSeconds"`
	VestingSeconds  uint64 `json:"vestingSeconds"`
	TgePercentBps   uint64 `json:"tgePercentBps"`
	SliceSeconds    uint64 `json:"sliceSeconds"`
	MerkleRoot      string `json:"merkleRoot"`
	TotalAllocation string `json:"totalAllocation"`
}

type PoolDepositEvent struct {
	PoolID          uint64 `json:"poolId"`
	Amount          string `json:"amount"`
	DepositedAmount string `json:"depositedAmount"`
}

type PoolFinalizedEvent struct {
	PoolID          uint64 `json:"poolId"`
	TotalAllocation string `json:"totalAllocation"`
}

type ClaimedEvent struct {
	PoolID      uint64 `json:"poolId"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
	TotalClaims string `json:"totalClaims"`
}

type UnclaimedBurnedEvent struct {
	PoolID uint64 `json:"poolId"`
	Amount string `json:"amount"`
}

type TokenAddressSetEvent struct {
	Token   string `json:"token"`
	Custody string `json:"custody"`
}

func emitEvent(sdk kalpsdk.TransactionContextInterface, name string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	err = sdk.SetEvent(name, payloadJSON)
	if err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitPoolConfigured(sdk kalpsdk.TransactionContextInterface, pool *Pool) error {
	return emitEvent(sdk, poolConfiguredEvent, PoolConfiguredEvent{
		PoolID:          pool.PoolID,
		TgeTimestamp:    pool.TgeTimestamp,
		CliffSeconds:    pool.CliffSeconds,
		VestingSeconds:  pool.VestingSeconds,
		TgePercentBps:   pool.TgePercentBps,
		SliceSeconds:    pool.SliceSeconds,
		MerkleRoot:      pool.MerkleRoot,
		TotalAllocation: pool.TotalAllocation,
	})
}

func EmitPoolDeposit(sdk kalpsdk.TransactionContextInterface, poolID uint64, amount, depositedAmount string) error {
	return emitEvent(sdk, poolDepositEvent, PoolDepositEvent{
		PoolID:          poolID,
		Amount:          amount,
		DepositedAmount: depositedAmount,
	})
}

func EmitPoolFinalized(sdk kalpsdk.TransactionContextInterface, poolID uint64, totalAllocation string) error {
	return emitEvent(sdk, poolFinalizedEvent, PoolFinalizedEvent{
		PoolID:          poolID,
		TotalAllocation: totalAllocation,
	})
}

func EmitClaimed(sdk kalpsdk.TransactionContextInterface, poolID uint64, beneficiary, amount, totalClaims string) error {
	return emitEvent(sdk, claimEvent, ClaimedEvent{
		PoolID:      poolID,
		Beneficiary: beneficiary,
		Amount:      amount,
		TotalClaims: totalClaims,
	})
}

func EmitUnclaimedBurned(sdk kalpsdk.TransactionContextInterface, poolID uint64, amount string) error {
	return emitEvent(sdk, unclaimedBurnedEvent, UnclaimedBurnedEvent{
		PoolID: poolID,
		Amount: amount,
	})
}

func EmitTokenAddressSet(sdk kalpsdk.TransactionContextInterface, token, custody string) error {
	return emitEvent(sdk, tokenAddressSetEvent, TokenAddressSetEvent{
		Token:   token,
		Custody: custody,
	})
}
