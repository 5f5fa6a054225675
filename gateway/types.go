package gateway

const (
	PathKeys        = "/keys"
	PathCiphertexts = "/ciphertexts"
	PathReencrypt   = "/reencrypt"
)

type PublicKeyResponse struct {
	// hex encoded network FHE public key
	PublicKey string `json:"publicKey"`
	ChainId   uint64 `json:"chainId"`
}

type StoreCiphertextRequest struct {
	// hex encoded ciphertext envelope
	Ciphertext      string `json:"ciphertext"`
	ContractAddress string `json:"contractAddress"`
	// Accounts allowed to re-encrypt the value. Empty means anyone holding a
	// valid signature.
	AllowedUsers []string `json:"allowedUsers,omitempty"`
}

type StoreCiphertextResponse struct {
	// 0x prefixed 32 byte handle
	Handle string `json:"handle"`
}

type ReencryptRequest struct {
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
	UserAddress     string `json:"userAddress"`
	// hex encoded re-encryption public key the plaintext is sealed to
	PublicKey string `json:"publicKey"`
	// hex encoded EIP-712 signature by UserAddress
	Signature string `json:"signature"`
}

type ReencryptResponse struct {
	// hex encoded sealed box holding the big-endian plaintext
	Sealed string `json:"sealed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
