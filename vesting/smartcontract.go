package vesting

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type SmartContract struct {
	kalpsdk.Contract
}

// SetTokenAddress wires the contract to the token ledger: the token
// chaincode address and this contract's own custody address on it. Both are
// one-way latches; the wiring cannot be repointed once set.
func (s *SmartContract) SetTokenAddress(ctx kalpsdk.TransactionContextInterface, tokenAddress, custodyAddress string) error {
	if err := IsSignerOperator(ctx); err != nil {
		return err
	}

	if !IsContractAddressValid(tokenAddress) {
		return ErrInvalidContractAddress(tokenAddress)
	}
	if !IsContractAddressValid(custodyAddress) {
		return ErrInvalidContractAddress(custodyAddress)
	}

	existingAddress, err := GetTokenAddress(ctx)
	if err != nil {
		return err
	}
	if existingAddress != "" {
		return NewCustomError(http.StatusConflict, "token address is already set", ErrTokenAlreadySet)
	}

	err = ctx.PutStateWithoutKYC(TokenAddressKey, []byte(tokenAddress))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set token address with Key %s", TokenAddressKey), err)
	}

	err = ctx.PutStateWithoutKYC(CustodyAddressKey, []byte(custodyAddress))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set custody address with Key %s", CustodyAddressKey), err)
	}

	return EmitTokenAddressSet(ctx, tokenAddress, custodyAddress)
}

// ConfigurePool creates or replaces the schedule of an unfinalized pool.
// Reconfiguration keeps the deposit accounting; finalization latches the
// configuration for good.
func (s *SmartContract) ConfigurePool(ctx kalpsdk.TransactionContextInterface, poolID, tgeTimestamp, cliffSeconds, vestingSeconds, tgePercentBps, sliceSeconds uint64, merkleRoot, totalAllocation string) error {
	if err := IsSignerOperator(ctx); err != nil {
		return err
	}

	depositedAmount := "0"
	poolKey := fmt.Sprintf("%s_%d", PoolKeyPrefix, poolID)
	existingBytes, err := ctx.GetState(poolKey)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get pool with Key %s", poolKey), err)
	}
	if existingBytes != nil {
		var existing Pool
		if err := json.Unmarshal(existingBytes, &existing); err != nil {
			return NewCustomError(http.StatusInternalServerError, "failed to unmarshal pool", err)
		}
		if existing.Finalized {
			return NewCustomError(http.StatusConflict, fmt.Sprintf("pool %d is finalized", poolID), ErrAlreadyFinalized)
		}
		depositedAmount = existing.DepositedAmount
	}

	pool := &Pool{
		PoolID:          poolID,
		TgeTimestamp:    tgeTimestamp,
		CliffSeconds:    cliffSeconds,
		VestingSeconds:  vestingSeconds,
		TgePercentBps:   tgePercentBps,
		SliceSeconds:    sliceSeconds,
		MerkleRoot:      merkleRoot,
		TotalAllocation: totalAllocation,
		DepositedAmount: depositedAmount,
		Finalized:       false,
		Burned:          false,
	}

	return validateNSetPool(ctx, pool)
}

// DepositForPool pulls amount from the operator into pool custody and adds
// it to the pool's deposit accounting. Deposits close once the pool is
// finalized.
func (s *SmartContract) DepositForPool(ctx kalpsdk.TransactionContextInterface, poolID uint64, amount string) error {
	if err := IsSignerOperator(ctx); err != nil {
		return err
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	if pool.Finalized {
		return NewCustomError(http.StatusConflict, fmt.Sprintf("pool %d is finalized", poolID), ErrAlreadyFinalized)
	}

	depositAmount, err := parsePositiveAmount("deposit", amount)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "invalid deposit amount", err)
	}

	signer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	if err := PullTokens(ctx, signer, depositAmount); err != nil {
		return err
	}

	deposited, ok := new(big.Int).SetString(pool.DepositedAmount, 10)
	if !ok {
		return ErrInvalidAmount("depositedAmount", pool.DepositedAmount)
	}
	deposited.Add(deposited, depositAmount)
	pool.DepositedAmount = deposited.String()

	if err := SetPool(ctx, pool); err != nil {
		return err
	}

	return EmitPoolDeposit(ctx, poolID, depositAmount.String(), pool.DepositedAmount)
}

// FinalizePool latches the pool. It requires the escrowed deposit to match
// the committed total allocation exactly; both under- and over-deposits are
// rejected.
func (s *SmartContract) FinalizePool(ctx kalpsdk.TransactionContextInterface, poolID uint64) error {
	if err := IsSignerOperator(ctx); err != nil {
		return err
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	if pool.Finalized {
		return NewCustomError(http.StatusConflict, fmt.Sprintf("pool %d is finalized", poolID), ErrAlreadyFinalized)
	}

	if pool.DepositedAmount != pool.TotalAllocation {
		deposited, ok := new(big.Int).SetString(pool.DepositedAmount, 10)
		if !ok {
			return ErrInvalidAmount("depositedAmount", pool.DepositedAmount)
		}
		totalAllocation, ok := new(big.Int).SetString(pool.TotalAllocation, 10)
		if !ok {
			return ErrInvalidAmount("totalAllocation", pool.TotalAllocation)
		}
		if deposited.Cmp(totalAllocation) != 0 {
			return NewCustomError(http.StatusBadRequest, "deposit does not match total allocation", ErrDepositMismatch(poolID, pool.DepositedAmount, pool.TotalAllocation))
		}
	}

	pool.Finalized = true

	if err := SetPool(ctx, pool); err != nil {
		return err
	}

	return EmitPoolFinalized(ctx, poolID, pool.TotalAllocation)
}

// Claim releases the newly vested portion of the signer's allocation. The
// allocation itself is not stored on chain; the caller proves it against
// the pool's Merkle root on every claim.
func (s *SmartContract) Claim(ctx kalpsdk.TransactionContextInterface, poolID uint64, allocation string, proof []ProofNode) (string, error) {
	signer, err := GetUserId(ctx)
	if err != nil {
		return "0", NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return "0", err
	}

	if !pool.Finalized {
		return "0", NewCustomError(http.StatusConflict, fmt.Sprintf("pool %d is not finalized", poolID), ErrNotFinalized)
	}

	allocationAmount, err := parsePositiveAmount("allocation", allocation)
	if err != nil {
		return "0", NewCustomError(http.StatusBadRequest, "invalid allocation amount", err)
	}

	ok, err := VerifyMembership(pool.MerkleRoot, signer, allocation, proof)
	if err != nil || !ok {
		return "0", NewCustomError(http.StatusBadRequest, fmt.Sprintf("membership proof rejected for pool %d and beneficiary %s", poolID, signer), ErrInvalidProof)
	}

	now, err := GetTxTimestampSeconds(ctx)
	if err != nil {
		return "0", err
	}

	record, err := GetClaimRecord(ctx, poolID, signer)
	if err != nil {
		return "0", err
	}

	claimedAmount, ok2 := new(big.Int).SetString(record.ClaimedAmount, 10)
	if !ok2 {
		return "0", ErrInvalidAmount("claimedAmount", record.ClaimedAmount)
	}

	vested := CalculateVestedAmount(pool, allocationAmount, now)

	claimable := new(big.Int).Sub(vested, claimedAmount)
	if claimable.Sign() <= 0 {
		return "0", NewCustomError(http.StatusBadRequest, fmt.Sprintf("nothing to claim for pool %d and beneficiary %s", poolID, signer), ErrNothingToClaim)
	}

	newClaimed := new(big.Int).Add(claimedAmount, claimable)
	if newClaimed.Cmp(allocationAmount) > 0 {
		return "0", ErrClaimExceedsAllocation(poolID, signer, newClaimed.String(), allocation)
	}

	if err := TransferTokens(ctx, signer, claimable); err != nil {
		return "0", err
	}

	record.ClaimedAmount = newClaimed.String()
	if err := SetClaimRecord(ctx, poolID, record); err != nil {
		return "0", err
	}

	totalClaims, err := GetTotalClaims(ctx, poolID)
	if err != nil {
		return "0", err
	}
	totalClaims.Add(totalClaims, claimable)
	if err := SetTotalClaims(ctx, poolID, totalClaims); err != nil {
		return "0", err
	}

	totalClaimsForAll, err := GetTotalClaimsForAll(ctx)
	if err != nil {
		return "0", err
	}
	totalClaimsForAll.Add(totalClaimsForAll, claimable)
	if err := SetTotalClaimsForAll(ctx, totalClaimsForAll); err != nil {
		return "0", err
	}

	if err := EmitClaimed(ctx, poolID, signer, claimable.String(), totalClaims.String()); err != nil {
		return "0", err
	}

	return claimable.String(), nil
}

// BurnUnclaimed destroys whatever was never claimed out of a pool, once,
// after the vesting horizon plus the grace period. Returns the burned
// amount.
func (s *SmartContract) BurnUnclaimed(ctx kalpsdk.TransactionContextInterface, poolID uint64) (string, error) {
	if err := IsSignerOperator(ctx); err != nil {
		return "0", err
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return "0", err
	}

	if pool.Burned {
		return "0", NewCustomError(http.StatusConflict, fmt.Sprintf("pool %d is already burned", poolID), ErrAlreadyBurned)
	}

	now, err := GetTxTimestampSeconds(ctx)
	if err != nil {
		return "0", err
	}

	if now < pool.TgeTimestamp+pool.VestingSeconds+burnGracePeriod {
		return "0", NewCustomError(http.StatusBadRequest, fmt.Sprintf("burn window for pool %d has not opened", poolID), ErrTooEarly)
	}

	deposited, ok := new(big.Int).SetString(pool.DepositedAmount, 10)
	if !ok {
		return "0", ErrInvalidAmount("depositedAmount", pool.DepositedAmount)
	}

	totalClaims, err := GetTotalClaims(ctx, poolID)
	if err != nil {
		return "0", err
	}

	remainder := new(big.Int).Sub(deposited, totalClaims)
	if remainder.Sign() < 0 {
		return "0", ErrInvalidAmount("remainder", remainder.String())
	}

	if remainder.Sign() > 0 {
		if err := BurnTokens(ctx, remainder); err != nil {
			return "0", err
		}
	}

	pool.Burned = true
	if err := SetPool(ctx, pool); err != nil {
		return "0", err
	}

	if err := EmitUnclaimedBurned(ctx, poolID, remainder.String()); err != nil {
		return "0", err
	}

	return remainder.String(), nil
}

// VestedAmount reports the cumulative vested amount for an allocation under
// a pool's schedule at the transaction timestamp. Read-only introspection;
// no membership proof is required.
func (s *SmartContract) VestedAmount(ctx kalpsdk.TransactionContextInterface, poolID uint64, allocation string) (string, error) {
	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return "0", err
	}

	allocationAmount, err := parsePositiveAmount("allocation", allocation)
	if err != nil {
		return "0", NewCustomError(http.StatusBadRequest, "invalid allocation amount", err)
	}

	now, err := GetTxTimestampSeconds(ctx)
	if err != nil {
		return "0", err
	}

	return CalculateVestedAmount(pool, allocationAmount, now).String(), nil
}

// Claimed reports the cumulative amount already released to a beneficiary
// under a pool.
func (s *SmartContract) Claimed(ctx kalpsdk.TransactionContextInterface, poolID uint64, beneficiary string) (string, error) {
	if !IsUserAddressValid(beneficiary) {
		return "0", ErrInvalidUserAddress(beneficiary)
	}

	record, err := GetClaimRecord(ctx, poolID, beneficiary)
	if err != nil {
		return "0", err
	}

	return record.ClaimedAmount, nil
}

// CalculateClaimableAmount previews what Claim would release right now for
// (beneficiary, allocation), including proof verification. Returns "0"
// rather than failing when nothing has newly vested.
func (s *SmartContract) CalculateClaimableAmount(ctx kalpsdk.TransactionContextInterface, poolID uint64, beneficiary, allocation string, proof []ProofNode) (string, error) {
	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return "0", err
	}

	allocationAmount, err := parsePositiveAmount("allocation", allocation)
	if err != nil {
		return "0", NewCustomError(http.StatusBadRequest, "invalid allocation amount", err)
	}

	ok, err := VerifyMembership(pool.MerkleRoot, beneficiary, allocation, proof)
	if err != nil || !ok {
		return "0", NewCustomError(http.StatusBadRequest, fmt.Sprintf("membership proof rejected for pool %d and beneficiary %s", poolID, beneficiary), ErrInvalidProof)
	}

	now, err := GetTxTimestampSeconds(ctx)
	if err != nil {
		return "0", err
	}

	record, err := GetClaimRecord(ctx, poolID, beneficiary)
	if err != nil {
		return "0", err
	}

	claimedAmount, ok2 := new(big.Int).SetString(record.ClaimedAmount, 10)
	if !ok2 {
		return "0", ErrInvalidAmount("claimedAmount", record.ClaimedAmount)
	}

	vested := CalculateVestedAmount(pool, allocationAmount, now)

	claimable := new(big.Int).Sub(vested, claimedAmount)
	if claimable.Sign() < 0 {
		return "0", ErrClaimExceedsAllocation(poolID, beneficiary, record.ClaimedAmount, allocation)
	}

	return claimable.String(), nil
}

// GetPool returns the stored pool document.
func (s *SmartContract) GetPool(ctx kalpsdk.TransactionContextInterface, poolID uint64) (*Pool, error) {
	return GetPool(ctx, poolID)
}

// GetTotalClaims returns the pool-wide claimed sum.
func (s *SmartContract) GetTotalClaims(ctx kalpsdk.TransactionContextInterface, poolID uint64) (string, error) {
	totalClaims, err := GetTotalClaims(ctx, poolID)
	if err != nil {
		return "0", err
	}

	return totalClaims.String(), nil
}

// GetTotalClaimsForAll returns the claimed sum across every pool.
func (s *SmartContract) GetTotalClaimsForAll(ctx kalpsdk.TransactionContextInterface) (string, error) {
	totalClaims, err := GetTotalClaimsForAll(ctx)
	if err != nil {
		return "0", err
	}

	return totalClaims.String(), nil
}

// GetTokenAddress returns the wired token chaincode address.
func (s *SmartContract) GetTokenAddress(ctx kalpsdk.TransactionContextInterface) (string, error) {
	return GetTokenAddress(ctx)
}

// GetPoolClaims lists every claim record stored under a pool.
func (s *SmartContract) GetPoolClaims(ctx kalpsdk.TransactionContextInterface, poolID uint64) (*PoolClaims, error) {
	startKey := fmt.Sprintf("%s_%d_", ClaimsKeyPrefix, poolID)
	endKey := startKey + "~"

	iterator, err := ctx.GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to range claim records for pool %d", poolID), err)
	}
	defer iterator.Close()

	poolClaims := &PoolClaims{
		PoolID:         poolID,
		Beneficiaries:  []string{},
		ClaimedAmounts: []string{},
	}

	for iterator.HasNext() {
		kv, err := iterator.Next()
		if err != nil {
			return nil, NewCustomError(http.StatusInternalServerError, "failed to iterate claim records", err)
		}

		var record ClaimRecord
		if err := json.Unmarshal(kv.Value, &record); err != nil {
			return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal claim record", err)
		}

		poolClaims.Beneficiaries = append(poolClaims.Beneficiaries, record.Beneficiary)
		poolClaims.ClaimedAmounts = append(poolClaims.ClaimedAmounts, record.ClaimedAmount)
	}

	return poolClaims, nil
}
