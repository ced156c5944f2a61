package contracts

// Addresses is the full set of contract addresses the adapters bind
// against. It ships as plain data (never hard-coded inside an adapter
// constructor, per the design note in spec §9) so a second instance can
// target a test network.
type Addresses struct {
	IDRegistry                Address
	IDGateway                 Address
	KeyRegistry               Address
	KeyGateway                Address
	StorageRegistry           Address
	Bundler                   Address
	SignedKeyRequestValidator Address
}

// DefaultAddresses returns the mainnet deployment of the six contracts
// plus the signed-key-request validator.
func DefaultAddresses() Addresses {
	return Addresses{
		IDRegistry:                mustParse("0x00000000Fc6c6F5c755D6D93eEF6b2E9c2c1e88a"),
		IDGateway:                 mustParse("0x00000000Fc25870C6eD6b6c7E41Fb074C1a4e2d4"),
		KeyRegistry:               mustParse("0x00000000Fc1237824fb747aBDE0FF18990E59b7e"),
		KeyGateway:                mustParse("0x00000000Fc56947c7E7183f8Ca4B62398CAAdf0B"),
		StorageRegistry:           mustParse("0x00000000fcCe7f938e7aE6D3c335bD6a1a7c593d"),
		Bundler:                   mustParse("0x00000000FC04c910A0b5feA33b03E0447AD0B0aa"),
		SignedKeyRequestValidator: mustParse("0x00000000FC700472606988b44b0E9A43D3A8b13c"),
	}
}

// Testnet returns a second, overridable instance for local/test networks.
// Callers running against an anvil fork or a staging deployment replace
// these with the addresses printed by their deployment script.
func Testnet() Addresses {
	return Addresses{
		IDRegistry:                mustParse("0x000000001c4C33EE8aaEb17DB3f0cC7bdaa93AC1"),
		IDGateway:                 mustParse("0x00000000fc25870C6eD6b6c7E41FB8C1Ae4cfd0"),
		KeyRegistry:               mustParse("0x00000000Fc1237824fb747aBDE0FF18990E5F4e7"),
		KeyGateway:                mustParse("0x00000000fc56947c7e7183f8ca4b62398caaee0c"),
		StorageRegistry:           mustParse("0x0000000000a4a40F3B22C5f40F6cAe44F1fd4eea"),
		Bundler:                   mustParse("0x00000000FB7Ae082C33CAD5534383f26A6a2A0C4"),
		SignedKeyRequestValidator: mustParse("0x0000000000bF8D63E5b33aADA87E0CF1Fd5e8D14"),
	}
}

func mustParse(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
