package vesting

const (
	// poolOperator is the only identity allowed to configure, fund,
	// finalize and burn pools.
	poolOperator = "a4c1e3f09d25b87bb41cc7a819e71bddc78810ef"

	// burnGracePeriod is how long after a pool's vesting horizon the
	// unclaimed remainder stays claimable before it may be burned.
	burnGracePeriod = uint64(365 * 24 * 60 * 60)

	// bpsDenominator is the basis-point scale for the TGE unlock.
	bpsDenominator = 10000

	contractAddressRegex = `^klp-[a-fA-F0-9]+-cc$`
	hexAddressRegex      = `^[0-9a-fA-F]{40}$`
	merkleRootRegex      = `^[a-fA-F0-9]{64}$`

	// World state keys.
	PoolKeyPrefix        = "pool"
	ClaimsKeyPrefix      = "claims"
	TotalClaimsKeyPrefix = "total_claims"
	TotalClaimsForAllKey = "total_claims_for_all"
	TokenAddressKey      = "tokenAddress"
	CustodyAddressKey    = "custodyAddress"

	// Token chaincode functions invoked cross-contract.
	tokenTransferFn     = "Transfer"
	tokenTransferFromFn = "TransferFrom"
	tokenBurnFn         = "Burn"

	// Event names.
	tokenAddressSetEvent = "TokenAddressSet"
	poolConfiguredEvent  = "PoolConfigured"
	poolDepositEvent     = "PoolDeposit"
	poolFinalizedEvent   = "PoolFinalized"
	claimEvent           = "Claim"
	unclaimedBurnedEvent = "UnclaimedBurned"
)
