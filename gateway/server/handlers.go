package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/fhe"
	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ciphertextRecord struct {
	Ciphertext      []byte
	ContractAddress common.Address
	AllowedUsers    []common.Address
	CreatedAt       time.Time
}

func ciphertextKey(handle common.Hash) string {
	return "ciphertext-" + handle.Hex()
}

func fail(c echo.Context, code int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	log.Debug().Int("status", code).Str("path", c.Path()).Msg(msg)
	return c.JSON(code, &gateway.ErrorResponse{Error: msg})
}

func (s *server) getKeys(c echo.Context) error {
	return c.JSON(http.StatusOK, &gateway.PublicKeyResponse{PublicKey: s.publicKey, ChainId: s.chainId})
}

func (s *server) postCiphertext(c echo.Context) error {
	req := new(gateway.StoreCiphertextRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request: %s", err)
	}
	ct, err := utils.FromHexString(req.Ciphertext)
	if err != nil || len(ct) == 0 {
		return fail(c, http.StatusBadRequest, "invalid ciphertext")
	}
	if _, _, err = fhe.ParseEnvelope(ct); err != nil {
		return fail(c, http.StatusBadRequest, "invalid ciphertext: %s", err)
	}
	contract, err := utils.ParseAddress(req.ContractAddress)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid contract address %s", req.ContractAddress)
	}
	rec := ciphertextRecord{
		Ciphertext:      ct,
		ContractAddress: contract,
		CreatedAt:       time.Now().UTC(),
	}
	for _, u := range req.AllowedUsers {
		addr, err := utils.ParseAddress(u)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid allowed user %s", u)
		}
		rec.AllowedUsers = append(rec.AllowedUsers, addr)
	}

	handle := crypto.Keccak256Hash(ct)
	if err = s.store.Set(ciphertextKey(handle), rec); err != nil {
		log.Error().Err(err).Msg("store ciphertext failed")
		return fail(c, http.StatusInternalServerError, "store ciphertext failed")
	}
	log.Debug().Str("handle", handle.Hex()).Str("contract", contract.Hex()).Msg("stored ciphertext")
	return c.JSON(http.StatusOK, &gateway.StoreCiphertextResponse{Handle: handle.Hex()})
}

func (s *server) postReencrypt(c echo.Context) error {
	req := new(gateway.ReencryptRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request: %s", err)
	}
	h, err := utils.ParseHandle(req.Handle)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid handle %s", req.Handle)
	}
	contract, err := utils.ParseAddress(req.ContractAddress)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid contract address %s", req.ContractAddress)
	}
	user, err := utils.ParseAddress(req.UserAddress)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user address %s", req.UserAddress)
	}
	publicKey, err := utils.FromHexString(req.PublicKey)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid public key")
	}
	sig, err := utils.FromHexString(req.Signature)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid signature")
	}

	var rec ciphertextRecord
	found, err := s.store.Get(ciphertextKey(common.BigToHash(h)), &rec)
	if err != nil {
		log.Error().Err(err).Msg("load ciphertext failed")
		return fail(c, http.StatusInternalServerError, "load ciphertext failed")
	}
	if !found {
		return fail(c, http.StatusNotFound, "unknown handle %s", req.Handle)
	}
	if rec.ContractAddress != contract {
		return fail(c, http.StatusForbidden, "handle is not owned by %s", contract.Hex())
	}
	if !rec.allows(user) {
		return fail(c, http.StatusForbidden, "user %s is not allowed to decrypt handle", user.Hex())
	}

	typedData := fhe.NewReencryptTypedData(s.chainId, publicKey, h, contract)
	signer, err := fhe.RecoverTypedDataSigner(typedData, sig)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid signature: %s", err)
	}
	if signer != user {
		return fail(c, http.StatusUnauthorized, "signature is from %s, not %s", signer.Hex(), user.Hex())
	}

	value, _, err := s.kms.Decrypt(rec.Ciphertext)
	if err != nil {
		log.Error().Err(err).Str("handle", req.Handle).Msg("decrypt failed")
		return fail(c, http.StatusInternalServerError, "decrypt failed")
	}
	sealed, err := fhe.SealFor(publicKey, value.Bytes())
	if err != nil {
		return fail(c, http.StatusBadRequest, "cannot seal: %s", err)
	}
	return c.JSON(http.StatusOK, &gateway.ReencryptResponse{Sealed: utils.ToHexString(sealed)})
}

func (r *ciphertextRecord) allows(user common.Address) bool {
	if len(r.AllowedUsers) == 0 {
		return true
	}
	for _, u := range r.AllowedUsers {
		if u == user {
			return true
		}
	}
	return false
}
