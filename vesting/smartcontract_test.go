package vesting_test

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/p2eengineering/gini-pool-vesting-contract/vesting"
	"github.com/p2eengineering/gini-pool-vesting-contract/vesting/mocks"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
	"github.com/p2eengineering/kalp-sdk-public/response"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	operatorAddress = "a4c1e3f09d25b87bb41cc7a819e71bddc78810ef"
	beneficiary1    = "0b87970433b22494faff1cc7a819e71bddc7880c"
	beneficiary2    = "1c98a81544c33595faff1cc7a819e71bddc7891d"
	tokenAddress    = "klp-6b616c70746f6b656e-cc"
	custodyAddress  = "klp-76657374696e67-cc"

	graceSeconds = uint64(365 * 24 * 60 * 60)
)

type transactionContext interface {
	kalpsdk.TransactionContextInterface
}

//go:generate counterfeiter -o mocks/transactioncontext.go -fake-name TransactionContext . transactionContext

type stateQueryIterator interface {
	kalpsdk.StateQueryIteratorInterface
}

//go:generate counterfeiter -o mocks/statequeryiterator.go -fake-name StateQueryIterator . stateQueryIterator

type clientIdentity interface {
	cid.ClientIdentity
}

//go:generate counterfeiter -o mocks/clientidentity.go -fake-name ClientIdentity . clientIdentity

func SetUserID(transactionContext *mocks.TransactionContext, userID string) {
	completeId := fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", userID)

	b64ID := base64.StdEncoding.EncodeToString([]byte(completeId))

	clientIdentity := &mocks.ClientIdentity{}
	clientIdentity.GetIDReturns(b64ID, nil)
	transactionContext.GetClientIdentityReturns(clientIdentity)
}

func SetTxTime(transactionContext *mocks.TransactionContext, seconds uint64) {
	transactionContext.GetTxTimestampReturns(timestamppb.New(time.Unix(int64(seconds), 0)), nil)
}

func newMockContext() (*mocks.TransactionContext, map[string][]byte) {
	transactionContext := &mocks.TransactionContext{}
	worldState := map[string][]byte{}

	transactionContext.PutStateWithoutKYCStub = func(s string, b []byte) error {
		worldState[s] = b
		return nil
	}
	transactionContext.PutStateStub = func(s string, b []byte) error {
		worldState[s] = b
		return nil
	}
	transactionContext.GetStateStub = func(s string) ([]byte, error) {
		data, found := worldState[s]
		if found {
			return data, nil
		}
		return nil, nil
	}
	transactionContext.DelStateWithoutKYCStub = func(s string) error {
		delete(worldState, s)
		return nil
	}
	transactionContext.GetStateByRangeStub = func(startKey, endKey string) (kalpsdk.StateQueryIteratorInterface, error) {
		var keys []string
		for key := range worldState {
			if key >= startKey && key < endKey {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		index := 0
		iterator := &mocks.StateQueryIterator{}
		iterator.HasNextStub = func() bool {
			return index < len(keys)
		}
		iterator.NextStub = func() (*queryresult.KV, error) {
			if index >= len(keys) {
				return nil, fmt.Errorf("iterator out of bounds")
			}
			kv := &queryresult.KV{Key: keys[index], Value: worldState[keys[index]]}
			index++
			return kv, nil
		}
		return iterator, nil
	}
	transactionContext.GetChannelIDStub = func() string {
		return "kalp"
	}
	transactionContext.InvokeChaincodeStub = func(s1 string, b [][]byte, s2 string) response.Response {
		return response.Response{
			Response: peer.Response{
				Status:  http.StatusOK,
				Payload: []byte("true"),
			},
		}
	}

	SetUserID(transactionContext, operatorAddress)
	SetTxTime(transactionContext, tgeTimestamp)

	return transactionContext, worldState
}

func singleLeafRoot(beneficiary, allocation string) string {
	return hex.EncodeToString(vesting.LeafHash(beneficiary, allocation))
}

// twoLeafTree returns the root and both proofs for a two beneficiary pool.
func twoLeafTree(beneficiaryA, allocationA, beneficiaryB, allocationB string) (string, []vesting.ProofNode, []vesting.ProofNode) {
	leafA := vesting.LeafHash(beneficiaryA, allocationA)
	leafB := vesting.LeafHash(beneficiaryB, allocationB)
	root := hashPair(leafA, leafB)

	proofA := []vesting.ProofNode{{Hash: hex.EncodeToString(leafB), Position: vesting.ProofPositionRight}}
	proofB := []vesting.ProofNode{{Hash: hex.EncodeToString(leafA), Position: vesting.ProofPositionLeft}}

	return hex.EncodeToString(root), proofA, proofB
}

func setTokenAddress(t *testing.T, contract *vesting.SmartContract, ctx *mocks.TransactionContext) {
	t.Helper()
	require.NoError(t, contract.SetTokenAddress(ctx, tokenAddress, custodyAddress))
}

func configureReferencePool(t *testing.T, contract *vesting.SmartContract, ctx *mocks.TransactionContext, poolID uint64, root, totalAllocation string) {
	t.Helper()
	err := contract.ConfigurePool(ctx, poolID, tgeTimestamp, 3*month, 12*month, 1000, month, root, totalAllocation)
	require.NoError(t, err)
}

func fundAndFinalizePool(t *testing.T, contract *vesting.SmartContract, ctx *mocks.TransactionContext, poolID uint64, amount string) {
	t.Helper()
	require.NoError(t, contract.DepositForPool(ctx, poolID, amount))
	require.NoError(t, contract.FinalizePool(ctx, poolID))
}

func TestSetTokenAddress(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()

	SetUserID(ctx, beneficiary1)
	err := contract.SetTokenAddress(ctx, tokenAddress, custodyAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the pool operator")

	SetUserID(ctx, operatorAddress)
	err = contract.SetTokenAddress(ctx, "0x0000000000000000000000000000000000000000", custodyAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidContractAddress")

	err = contract.SetTokenAddress(ctx, tokenAddress, "not-an-address")
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidContractAddress")

	err = contract.SetTokenAddress(ctx, tokenAddress, custodyAddress)
	require.NoError(t, err)

	stored, err := contract.GetTokenAddress(ctx)
	require.NoError(t, err)
	require.Equal(t, tokenAddress, stored)

	// One way latch.
	err = contract.SetTokenAddress(ctx, tokenAddress, custodyAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "TokenAlreadySet")
}

func TestConfigurePoolValidation(t *testing.T) {
	t.Parallel()

	root := singleLeafRoot(beneficiary1, vesting.ConvertGiniToWei(100000))

	tests := []struct {
		name            string
		tge             uint64
		cliff           uint64
		vestingSeconds  uint64
		bps             uint64
		slice           uint64
		root            string
		totalAllocation string
		expectedErr     string
	}{
		{
			name: "zero tge timestamp",
			tge:  0, cliff: month, vestingSeconds: 2 * month, bps: 0, slice: month,
			root: root, totalAllocation: "100",
			expectedErr: "CannotBeZero",
		},
		{
			name: "zero slice length",
			tge:  tgeTimestamp, cliff: month, vestingSeconds: 2 * month, bps: 0, slice: 0,
			root: root, totalAllocation: "100",
			expectedErr: "InvalidConfiguration",
		},
		{
			name: "cliff exceeds vesting",
			tge:  tgeTimestamp, cliff: 3 * month, vestingSeconds: 2 * month, bps: 0, slice: month,
			root: root, totalAllocation: "100",
			expectedErr: "InvalidConfiguration",
		},
		{
			name: "basis points out of range",
			tge:  tgeTimestamp, cliff: month, vestingSeconds: 2 * month, bps: 10001, slice: month,
			root: root, totalAllocation: "100",
			expectedErr: "InvalidConfiguration",
		},
		{
			name: "slice exceeds release window",
			tge:  tgeTimestamp, cliff: month, vestingSeconds: 3 * month, bps: 0, slice: 5 * month,
			root: root, totalAllocation: "100",
			expectedErr: "InvalidConfiguration",
		},
		{
			name: "malformed merkle root",
			tge:  tgeTimestamp, cliff: month, vestingSeconds: 2 * month, bps: 0, slice: month,
			root: "abcd", totalAllocation: "100",
			expectedErr: "InvalidConfiguration",
		},
		{
			name: "zero total allocation",
			tge:  tgeTimestamp, cliff: month, vestingSeconds: 2 * month, bps: 0, slice: month,
			root: root, totalAllocation: "0",
			expectedErr: "InvalidAmount",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			contract := &vesting.SmartContract{}
			ctx, _ := newMockContext()

			err := contract.ConfigurePool(ctx, 1, tt.tge, tt.cliff, tt.vestingSeconds, tt.bps, tt.slice, tt.root, tt.totalAllocation)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestConfigurePool(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)

	SetUserID(ctx, beneficiary1)
	err := contract.ConfigurePool(ctx, 1, tgeTimestamp, 3*month, 12*month, 1000, month, root, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the pool operator")

	SetUserID(ctx, operatorAddress)
	configureReferencePool(t, contract, ctx, 1, root, allocation)

	pool, err := contract.GetPool(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), pool.PoolID)
	require.Equal(t, root, pool.MerkleRoot)
	require.Equal(t, allocation, pool.TotalAllocation)
	require.Equal(t, "0", pool.DepositedAmount)
	require.False(t, pool.Finalized)
	require.False(t, pool.Burned)

	// Reconfiguration before finalize replaces the schedule and keeps
	// the deposit accounting.
	require.NoError(t, contract.DepositForPool(ctx, 1, allocation))
	err = contract.ConfigurePool(ctx, 1, tgeTimestamp, 2*month, 12*month, 500, month, root, allocation)
	require.NoError(t, err)

	pool, err = contract.GetPool(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2*month), pool.CliffSeconds)
	require.Equal(t, uint64(500), pool.TgePercentBps)
	require.Equal(t, allocation, pool.DepositedAmount)

	// Finalization latches the configuration.
	require.NoError(t, contract.FinalizePool(ctx, 1))
	err = contract.ConfigurePool(ctx, 1, tgeTimestamp, 3*month, 12*month, 1000, month, root, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "AlreadyFinalized")
}

func TestDepositForPool(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)

	err := contract.DepositForPool(ctx, 9, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PoolNotFound")

	configureReferencePool(t, contract, ctx, 1, root, allocation)

	SetUserID(ctx, beneficiary1)
	err = contract.DepositForPool(ctx, 1, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the pool operator")

	SetUserID(ctx, operatorAddress)
	err = contract.DepositForPool(ctx, 1, "not-a-number")
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidAmount")

	err = contract.DepositForPool(ctx, 1, "0")
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidAmount")

	// Deposits accumulate across calls.
	first := vesting.ConvertGiniToWei(60000)
	second := vesting.ConvertGiniToWei(40000)
	require.NoError(t, contract.DepositForPool(ctx, 1, first))
	require.NoError(t, contract.DepositForPool(ctx, 1, second))

	pool, err := contract.GetPool(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, allocation, pool.DepositedAmount)

	// The deposit pulls escrow from the operator into custody.
	chaincode, args, channel := ctx.InvokeChaincodeArgsForCall(ctx.InvokeChaincodeCallCount() - 1)
	require.Equal(t, tokenAddress, chaincode)
	require.Equal(t, "kalp", channel)
	require.Equal(t, [][]byte{
		[]byte("TransferFrom"),
		[]byte(operatorAddress),
		[]byte(custodyAddress),
		[]byte(second),
	}, args)

	require.NoError(t, contract.FinalizePool(ctx, 1))
	err = contract.DepositForPool(ctx, 1, first)
	require.Error(t, err)
	require.Contains(t, err.Error(), "AlreadyFinalized")
}

func TestDepositForPoolRequiresTokenWiring(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)

	err := contract.DepositForPool(ctx, 1, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "custody address is not set")
}

func TestFinalizePool(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)

	// Nothing deposited yet.
	err := contract.FinalizePool(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DepositMismatch")

	// Under-deposit.
	require.NoError(t, contract.DepositForPool(ctx, 1, vesting.ConvertGiniToWei(60000)))
	err = contract.FinalizePool(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DepositMismatch")

	// Over-deposit is just as invalid; the match is exact.
	require.NoError(t, contract.DepositForPool(ctx, 1, vesting.ConvertGiniToWei(50000)))
	err = contract.FinalizePool(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "DepositMismatch")

	contract2 := &vesting.SmartContract{}
	ctx2, _ := newMockContext()
	setTokenAddress(t, contract2, ctx2)
	configureReferencePool(t, contract2, ctx2, 1, root, allocation)
	require.NoError(t, contract2.DepositForPool(ctx2, 1, allocation))

	SetUserID(ctx2, beneficiary1)
	err = contract2.FinalizePool(ctx2, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the pool operator")

	SetUserID(ctx2, operatorAddress)
	require.NoError(t, contract2.FinalizePool(ctx2, 1))

	pool, err := contract2.GetPool(ctx2, 1)
	require.NoError(t, err)
	require.True(t, pool.Finalized)

	err = contract2.FinalizePool(ctx2, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "AlreadyFinalized")
}

func TestClaimLifecycle(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)

	// Claims are rejected until the pool is finalized.
	SetUserID(ctx, beneficiary1)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NotFinalized")

	SetUserID(ctx, operatorAddress)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)
	SetUserID(ctx, beneficiary1)

	// Tampered allocation fails the membership proof.
	_, err = contract.Claim(ctx, 1, vesting.ConvertGiniToWei(999999), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidProof")

	// Nothing is claimable before the TGE.
	SetTxTime(ctx, tgeTimestamp-1)
	_, err = contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NothingToClaim")

	// At the TGE the 10% unlock releases.
	SetTxTime(ctx, tgeTimestamp)
	claimed, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(10000), claimed)

	chaincode, args, _ := ctx.InvokeChaincodeArgsForCall(ctx.InvokeChaincodeCallCount() - 1)
	require.Equal(t, tokenAddress, chaincode)
	require.Equal(t, [][]byte{
		[]byte("Transfer"),
		[]byte(beneficiary1),
		[]byte(vesting.ConvertGiniToWei(10000)),
	}, args)

	// A repeat claim with no newly vested amount fails.
	_, err = contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NothingToClaim")

	// The cliff holds the vested amount at the TGE unlock.
	SetTxTime(ctx, tgeTimestamp+3*month)
	_, err = contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NothingToClaim")

	// Each monthly slice after the cliff releases 90000/9 = 10000.
	SetTxTime(ctx, tgeTimestamp+4*month)
	claimed, err = contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(10000), claimed)

	// Mid-slice claims see no increase.
	SetTxTime(ctx, tgeTimestamp+4*month+15*day)
	_, err = contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NothingToClaim")

	// Skipping slices accumulates them into one claim.
	SetTxTime(ctx, tgeTimestamp+7*month)
	claimed, err = contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(30000), claimed)

	// At the horizon the remainder drains and the record hits the
	// allocation exactly.
	SetTxTime(ctx, tgeTimestamp+12*month)
	claimed, err = contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(50000), claimed)

	record, err := contract.Claimed(ctx, 1, beneficiary1)
	require.NoError(t, err)
	require.Equal(t, allocation, record)

	totalClaims, err := contract.GetTotalClaims(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, allocation, totalClaims)

	// Fully claimed; nothing further ever vests.
	SetTxTime(ctx, tgeTimestamp+24*month)
	_, err = contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NothingToClaim")
}

func TestClaimRejectsNonMembers(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocationA := vesting.ConvertGiniToWei(60000)
	allocationB := vesting.ConvertGiniToWei(40000)
	root, proofA, proofB := twoLeafTree(beneficiary1, allocationA, beneficiary2, allocationB)

	configureReferencePool(t, contract, ctx, 1, root, vesting.ConvertGiniToWei(100000))
	fundAndFinalizePool(t, contract, ctx, 1, vesting.ConvertGiniToWei(100000))

	// The operator is not in the tree.
	_, err := contract.Claim(ctx, 1, allocationA, proofA)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidProof")

	// A member presenting another member's proof fails.
	SetUserID(ctx, beneficiary1)
	_, err = contract.Claim(ctx, 1, allocationA, proofB)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidProof")

	// Members claim independently with their own proofs.
	SetTxTime(ctx, tgeTimestamp)
	claimed, err := contract.Claim(ctx, 1, allocationA, proofA)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(6000), claimed)

	SetUserID(ctx, beneficiary2)
	claimed, err = contract.Claim(ctx, 1, allocationB, proofB)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(4000), claimed)
}

func TestClaimTransferFailureAborts(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)

	ctx.InvokeChaincodeStub = func(s1 string, b [][]byte, s2 string) response.Response {
		return response.Response{
			Response: peer.Response{
				Status:  http.StatusInternalServerError,
				Message: "insufficient balance",
			},
		}
	}

	SetUserID(ctx, beneficiary1)
	SetTxTime(ctx, tgeTimestamp)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to invoke token chaincode")

	// The failed transfer leaves the claim record untouched.
	claimedAmount, err := contract.Claimed(ctx, 1, beneficiary1)
	require.NoError(t, err)
	require.Equal(t, "0", claimedAmount)
}

func TestBurnUnclaimed(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)

	// Beneficiary claims the TGE unlock and then walks away.
	SetUserID(ctx, beneficiary1)
	SetTxTime(ctx, tgeTimestamp)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)

	SetUserID(ctx, operatorAddress)

	// The burn window opens a full grace period after the horizon.
	SetTxTime(ctx, tgeTimestamp+12*month+graceSeconds-1)
	_, err = contract.BurnUnclaimed(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "TooEarly")

	SetTxTime(ctx, tgeTimestamp+12*month+graceSeconds)

	SetUserID(ctx, beneficiary1)
	_, err = contract.BurnUnclaimed(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the pool operator")

	SetUserID(ctx, operatorAddress)
	burned, err := contract.BurnUnclaimed(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(90000), burned)

	chaincode, args, _ := ctx.InvokeChaincodeArgsForCall(ctx.InvokeChaincodeCallCount() - 1)
	require.Equal(t, tokenAddress, chaincode)
	require.Equal(t, [][]byte{
		[]byte("Burn"),
		[]byte(vesting.ConvertGiniToWei(90000)),
	}, args)

	pool, err := contract.GetPool(ctx, 1)
	require.NoError(t, err)
	require.True(t, pool.Burned)

	// Exactly once.
	_, err = contract.BurnUnclaimed(ctx, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "AlreadyBurned")
}

func TestBurnUnclaimedFullyClaimedPool(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)

	SetUserID(ctx, beneficiary1)
	SetTxTime(ctx, tgeTimestamp+12*month)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)

	SetUserID(ctx, operatorAddress)
	SetTxTime(ctx, tgeTimestamp+12*month+graceSeconds)

	invocationsBefore := ctx.InvokeChaincodeCallCount()
	burned, err := contract.BurnUnclaimed(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "0", burned)

	// Nothing to destroy, so the token ledger is never invoked.
	require.Equal(t, invocationsBefore, ctx.InvokeChaincodeCallCount())

	pool, err := contract.GetPool(ctx, 1)
	require.NoError(t, err)
	require.True(t, pool.Burned)
}

func TestVestedAmountQuery(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)

	SetTxTime(ctx, tgeTimestamp-1)
	vested, err := contract.VestedAmount(ctx, 1, allocation)
	require.NoError(t, err)
	require.Equal(t, "0", vested)

	SetTxTime(ctx, tgeTimestamp)
	vested, err = contract.VestedAmount(ctx, 1, allocation)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(10000), vested)

	SetTxTime(ctx, tgeTimestamp+12*month)
	vested, err = contract.VestedAmount(ctx, 1, allocation)
	require.NoError(t, err)
	require.Equal(t, allocation, vested)

	_, err = contract.VestedAmount(ctx, 1, "bogus")
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidAmount")

	_, err = contract.VestedAmount(ctx, 42, allocation)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PoolNotFound")
}

func TestCalculateClaimableAmountQuery(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)

	// Pre-TGE the preview is zero, not an error.
	SetTxTime(ctx, tgeTimestamp-1)
	claimable, err := contract.CalculateClaimableAmount(ctx, 1, beneficiary1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, "0", claimable)

	SetTxTime(ctx, tgeTimestamp)
	claimable, err = contract.CalculateClaimableAmount(ctx, 1, beneficiary1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(10000), claimable)

	// The preview matches what Claim then releases.
	SetUserID(ctx, beneficiary1)
	claimed, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, claimable, claimed)

	claimable, err = contract.CalculateClaimableAmount(ctx, 1, beneficiary1, allocation, nil)
	require.NoError(t, err)
	require.Equal(t, "0", claimable)

	_, err = contract.CalculateClaimableAmount(ctx, 1, beneficiary2, allocation, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidProof")
}

func TestClaimedQuery(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()

	_, err := contract.Claimed(ctx, 1, "not-an-address")
	require.Error(t, err)
	require.Contains(t, err.Error(), "InvalidUserAddress")

	claimed, err := contract.Claimed(ctx, 1, beneficiary1)
	require.NoError(t, err)
	require.Equal(t, "0", claimed)
}

func TestGetPoolClaims(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocationA := vesting.ConvertGiniToWei(60000)
	allocationB := vesting.ConvertGiniToWei(40000)
	root, proofA, proofB := twoLeafTree(beneficiary1, allocationA, beneficiary2, allocationB)

	configureReferencePool(t, contract, ctx, 1, root, vesting.ConvertGiniToWei(100000))
	fundAndFinalizePool(t, contract, ctx, 1, vesting.ConvertGiniToWei(100000))

	poolClaims, err := contract.GetPoolClaims(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, poolClaims.Beneficiaries)

	SetTxTime(ctx, tgeTimestamp)
	SetUserID(ctx, beneficiary1)
	_, err = contract.Claim(ctx, 1, allocationA, proofA)
	require.NoError(t, err)

	SetUserID(ctx, beneficiary2)
	_, err = contract.Claim(ctx, 1, allocationB, proofB)
	require.NoError(t, err)

	poolClaims, err = contract.GetPoolClaims(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), poolClaims.PoolID)
	require.Equal(t, []string{beneficiary1, beneficiary2}, poolClaims.Beneficiaries)
	require.Equal(t, []string{
		vesting.ConvertGiniToWei(6000),
		vesting.ConvertGiniToWei(4000),
	}, poolClaims.ClaimedAmounts)
}

func TestTotalClaimsAcrossPools(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)

	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)
	configureReferencePool(t, contract, ctx, 2, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 2, allocation)

	SetUserID(ctx, beneficiary1)
	SetTxTime(ctx, tgeTimestamp)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)
	_, err = contract.Claim(ctx, 2, allocation, nil)
	require.NoError(t, err)

	perPool, err := contract.GetTotalClaims(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(10000), perPool)

	forAll, err := contract.GetTotalClaimsForAll(ctx)
	require.NoError(t, err)
	require.Equal(t, vesting.ConvertGiniToWei(20000), forAll)
}

func TestClaimEventPayload(t *testing.T) {
	t.Parallel()

	contract := &vesting.SmartContract{}
	ctx, _ := newMockContext()
	setTokenAddress(t, contract, ctx)

	allocation := vesting.ConvertGiniToWei(100000)
	root := singleLeafRoot(beneficiary1, allocation)
	configureReferencePool(t, contract, ctx, 1, root, allocation)
	fundAndFinalizePool(t, contract, ctx, 1, allocation)

	SetUserID(ctx, beneficiary1)
	SetTxTime(ctx, tgeTimestamp)
	_, err := contract.Claim(ctx, 1, allocation, nil)
	require.NoError(t, err)

	name, payload := ctx.SetEventArgsForCall(ctx.SetEventCallCount() - 1)
	require.Equal(t, "Claim", name)

	var event struct {
		PoolID      uint64 `json:"poolId"`
		Beneficiary string `json:"beneficiary"`
		Amount      string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	require.Equal(t, uint64(1), event.PoolID)
	require.Equal(t, beneficiary1, event.Beneficiary)
	require.Equal(t, vesting.ConvertGiniToWei(10000), event.Amount)
}
