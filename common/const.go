package common

const (
	SepoliaChainId uint64 = 11155111
	// Zama devnet used by the rating example
	ZamaDevnetChainId uint64 = 8009
	LocalChainId      uint64 = 31337
)

const (
	DefaultGatewayUrl = "http://localhost:7077"
	DefaultRpcUrl     = "http://localhost:8545"
)

var DefaultRpcUrls = map[uint64]string{
	SepoliaChainId:    "https://ethereum-sepolia-rpc.publicnode.com",
	ZamaDevnetChainId: "https://devnet.zama.ai",
	LocalChainId:      DefaultRpcUrl,
}
