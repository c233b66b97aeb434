package vesting

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

func GetUserId(ctx kalpsdk.TransactionContextInterface) (string, error) {
	b64ID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v", err)
	}

	decodeID, err := base64.StdEncoding.DecodeString(b64ID)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode clientID: %v", err)
	}

	completeId := string(decodeID)
	userId := completeId[(strings.Index(completeId, "x509::CN=") + 9):strings.Index(completeId, ",")]

	if !IsUserAddressValid(userId) {
		return "", ErrInvalidUserAddress(userId)
	}

	return userId, nil
}

func IsSignerOperator(ctx kalpsdk.TransactionContextInterface) error {
	signer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to get client id", err)
	}

	if signer != poolOperator {
		return NewCustomError(http.StatusBadRequest, "signer is not the pool operator", nil)
	}

	return nil
}

func IsContractAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(contractAddressRegex, address)
	return isValid
}

func IsUserAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(hexAddressRegex, address)
	return isValid
}

func IsMerkleRootValid(root string) bool {
	isValid, _ := regexp.MatchString(merkleRootRegex, root)
	return isValid
}

func Decimals() uint64 {
	return 18
}

func ConvertGiniToWei(giniAmount uint64) string {
	decimals := Decimals()

	giniAmountBigInt := new(big.Int).SetUint64(giniAmount)

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	weiAmount := new(big.Int).Mul(giniAmountBigInt, multiplier)

	return weiAmount.String()
}

// parsePositiveAmount parses a decimal base-unit amount and rejects zero or
// negative values.
func parsePositiveAmount(entity, amount string) (*big.Int, error) {
	amountInInt, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, ErrInvalidAmount(entity, amount)
	}

	if amountInInt.Sign() <= 0 {
		return nil, ErrInvalidAmount(entity, amount)
	}

	return amountInInt, nil
}

// GetTxTimestampSeconds is the serialized clock every time-gated check
// reads. It is the endorsed transaction timestamp, not wall time.
func GetTxTimestampSeconds(ctx kalpsdk.TransactionContextInterface) (uint64, error) {
	txTimestamp, err := ctx.GetTxTimestamp()
	if err != nil {
		return 0, NewCustomError(http.StatusInternalServerError, "failed to get transaction timestamp", err)
	}

	return uint64(txTimestamp.GetSeconds()), nil
}

func invokeToken(ctx kalpsdk.TransactionContextInterface, args [][]byte) error {
	tokenAddress, err := GetTokenAddress(ctx)
	if err != nil {
		return err
	}
	if tokenAddress == "" {
		return NewCustomError(http.StatusPreconditionFailed, "token address is not set", ErrTokenNotSet)
	}

	output := ctx.InvokeChaincode(tokenAddress, args, ctx.GetChannelID())
	if output.Status != http.StatusOK {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to invoke token chaincode %s: %s", tokenAddress, output.Message), nil)
	}

	return nil
}

// TransferTokens moves amount from pool custody to recipient on the token
// ledger.
func TransferTokens(ctx kalpsdk.TransactionContextInterface, recipient string, amount *big.Int) error {
	return invokeToken(ctx, [][]byte{
		[]byte(tokenTransferFn),
		[]byte(recipient),
		[]byte(amount.String()),
	})
}

// PullTokens moves amount from the operator into pool custody. The operator
// must have approved the vesting contract on the token ledger beforehand.
func PullTokens(ctx kalpsdk.TransactionContextInterface, from string, amount *big.Int) error {
	custodyAddress, err := GetCustodyAddress(ctx)
	if err != nil {
		return err
	}
	if custodyAddress == "" {
		return NewCustomError(http.StatusPreconditionFailed, "custody address is not set", ErrTokenNotSet)
	}

	return invokeToken(ctx, [][]byte{
		[]byte(tokenTransferFromFn),
		[]byte(from),
		[]byte(custodyAddress),
		[]byte(amount.String()),
	})
}

// BurnTokens destroys amount held in pool custody on the token ledger.
func BurnTokens(ctx kalpsdk.TransactionContextInterface, amount *big.Int) error {
	return invokeToken(ctx, [][]byte{
		[]byte(tokenBurnFn),
		[]byte(amount.String()),
	})
}
