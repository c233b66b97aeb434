package vesting

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// Pool is one vesting cohort. Amounts are decimal strings in base token
// units (18 decimals).
type Pool struct {
	PoolID          uint64 `json:"poolId"`
	TgeTimestamp    uint64 `json:"tgeTimestamp"`
	CliffSeconds    uint64 `json:"cliffSeconds"`
	VestingSeconds  uint64 `json:"vestingSeconds"`
	TgePercentBps   uint64 `json:"tgePercentBps"`
	SliceSeconds    uint64 `json:"sliceSeconds"`
	MerkleRoot      string `json:"merkleRoot"`
	TotalAllocation string `json:"totalAllocation"`
	DepositedAmount string `json:"depositedAmount"`
	Finalized       bool   `json:"finalized"`
	Burned          bool   `json:"burned"`
}

// ClaimRecord tracks the cumulative amount released to one beneficiary
// under one pool.
type ClaimRecord struct {
	Beneficiary   string `json:"beneficiary"`
	ClaimedAmount string `json:"claimedAmount"`
}

// ProofNode is one step of a Merkle membership proof: the sibling hash and
// which side of the pair it sits on.
type ProofNode struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}

// PoolClaims is the query payload listing every claim record of a pool.
type PoolClaims struct {
	PoolID         uint64   `json:"poolId"`
	Beneficiaries  []string `json:"beneficiaries"`
	ClaimedAmounts []string `json:"claimedAmounts"`
}

func GetPool(ctx kalpsdk.TransactionContextInterface, poolID uint64) (*Pool, error) {
	poolKey := fmt.Sprintf("%s_%d", PoolKeyPrefix, poolID)
	poolAsBytes, err := ctx.GetState(poolKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get pool with Key %s", poolKey), err)
	}
	if poolAsBytes == nil {
		return nil, NewCustomError(http.StatusNotFound, fmt.Sprintf("pool with Key %s does not exist", poolKey), ErrPoolNotFound(poolID))
	}

	var pool Pool
	err = json.Unmarshal(poolAsBytes, &pool)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal pool", err)
	}

	return &pool, nil
}

func SetPool(ctx kalpsdk.TransactionContextInterface, pool *Pool) error {
	poolKey := fmt.Sprintf("%s_%d", PoolKeyPrefix, pool.PoolID)
	poolAsBytes, err := json.Marshal(pool)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal pool", err)
	}

	err = ctx.PutStateWithoutKYC(poolKey, poolAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set pool", err)
	}

	return nil
}

// GetClaimRecord returns the stored record for (poolID, beneficiary), or a
// zero record when the beneficiary has never claimed.
func GetClaimRecord(ctx kalpsdk.TransactionContextInterface, poolID uint64, beneficiary string) (*ClaimRecord, error) {
	claimKey := fmt.Sprintf("%s_%d_%s", ClaimsKeyPrefix, poolID, beneficiary)
	claimAsBytes, err := ctx.GetState(claimKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get claim record with Key %s", claimKey), err)
	}
	if claimAsBytes == nil {
		return &ClaimRecord{
			Beneficiary:   beneficiary,
			ClaimedAmount: "0",
		}, nil
	}

	var record ClaimRecord
	err = json.Unmarshal(claimAsBytes, &record)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal claim record", err)
	}

	return &record, nil
}

func SetClaimRecord(ctx kalpsdk.TransactionContextInterface, poolID uint64, record *ClaimRecord) error {
	claimKey := fmt.Sprintf("%s_%d_%s", ClaimsKeyPrefix, poolID, record.Beneficiary)
	claimAsBytes, err := json.Marshal(record)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal claim record", err)
	}

	err = ctx.PutStateWithoutKYC(claimKey, claimAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set claim record", err)
	}

	return nil
}

func GetTotalClaims(ctx kalpsdk.TransactionContextInterface, poolID uint64) (*big.Int, error) {
	totalClaimsKey := fmt.Sprintf("%s_%d", TotalClaimsKeyPrefix, poolID)

	totalClaimsAsBytes, err := ctx.GetState(totalClaimsKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get total claims with Key %s", totalClaimsKey), err)
	}

	totalClaims := big.NewInt(0)
	if totalClaimsAsBytes != nil {
		_, success := totalClaims.SetString(string(totalClaimsAsBytes), 10)
		if !success {
			return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to parse claimed amount for pool ID %d", poolID), nil)
		}
	}

	return totalClaims, nil
}

func SetTotalClaims(ctx kalpsdk.TransactionContextInterface, poolID uint64, totalClaims *big.Int) error {
	totalClaimsKey := fmt.Sprintf("%s_%d", TotalClaimsKeyPrefix, poolID)

	totalClaimsAsBytes, err := totalClaims.MarshalText()
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal total claims", err)
	}

	err = ctx.PutStateWithoutKYC(totalClaimsKey, totalClaimsAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set total claims for pool ID %d", poolID), err)
	}

	return nil
}

func GetTotalClaimsForAll(ctx kalpsdk.TransactionContextInterface) (*big.Int, error) {
	totalClaimsAsBytes, err := ctx.GetState(TotalClaimsForAllKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get total claims with Key %s", TotalClaimsForAllKey), err)
	}

	totalClaims := big.NewInt(0)
	if totalClaimsAsBytes != nil {
		_, success := totalClaims.SetString(string(totalClaimsAsBytes), 10)
		if !success {
			return nil, NewCustomError(http.StatusInternalServerError, "failed to parse claimed amount for all", nil)
		}
	}

	return totalClaims, nil
}

func SetTotalClaimsForAll(ctx kalpsdk.TransactionContextInterface, totalClaims *big.Int) error {
	totalClaimsAsBytes, err := totalClaims.MarshalText()
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal total claims", err)
	}

	err = ctx.PutStateWithoutKYC(TotalClaimsForAllKey, totalClaimsAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set total claims for all", err)
	}

	return nil
}

func GetTokenAddress(ctx kalpsdk.TransactionContextInterface) (string, error) {
	tokenAddressBytes, err := ctx.GetState(TokenAddressKey)
	if err != nil {
		return "", NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get token address with Key %s", TokenAddressKey), err)
	}

	return string(tokenAddressBytes), nil
}

func GetCustodyAddress(ctx kalpsdk.TransactionContextInterface) (string, error) {
	custodyAddressBytes, err := ctx.GetState(CustodyAddressKey)
	if err != nil {
		return "", NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get custody address with Key %s", CustodyAddressKey), err)
	}

	return string(custodyAddressBytes), nil
}
