package vesting

import (
	"errors"
	"fmt"
)

var (
	ErrNotFinalized     = errors.New("NotFinalized")
	ErrInvalidProof     = errors.New("InvalidProof")
	ErrNothingToClaim   = errors.New("NothingToClaim")
	ErrTooEarly         = errors.New("TooEarly")
	ErrAlreadyBurned    = errors.New("AlreadyBurned")
	ErrAlreadyFinalized = errors.New("AlreadyFinalized")
	ErrCannotBeZero     = errors.New("CannotBeZero")
	ErrTokenAlreadySet  = errors.New("TokenAlreadySet")
	ErrTokenNotSet      = errors.New("TokenNotSet")
)

type CustomError struct {
	Code    int
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewCustomError(code int, message string, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func ErrPoolNotFound(poolID uint64) error {
	return fmt.Errorf("PoolNotFound for pool ID %d", poolID)
}

func ErrDepositMismatch(poolID uint64, deposited, totalAllocation string) error {
	return fmt.Errorf("DepositMismatch for pool ID %d: deposited=%s, totalAllocation=%s", poolID, deposited, totalAllocation)
}

func ErrInvalidConfiguration(reason string) error {
	return fmt.Errorf("InvalidConfiguration: %s", reason)
}

func ErrInvalidAmount(entity, value string) error {
	return fmt.Errorf("InvalidAmount for %s with value %s", entity, value)
}

func ErrInvalidUserAddress(address string) error {
	return fmt.Errorf("InvalidUserAddress: %s", address)
}

func ErrInvalidContractAddress(contractAddress string) error {
	return fmt.Errorf("InvalidContractAddress for address %s", contractAddress)
}

func ErrClaimExceedsAllocation(poolID uint64, beneficiary, claimed, allocation string) error {
	return fmt.Errorf("ClaimAmountExceedsAllocation for pool ID %d and beneficiary %s: claimed=%s, allocation=%s",
		poolID, beneficiary, claimed, allocation)
}
