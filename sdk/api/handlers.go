package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var SupportedOperations = []string{"add", "subtract", "multiply", "divide", "compare", "min", "max", "and", "or", "xor"}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EncryptRequest struct {
	// Value is a JSON number, bool or string.
	Value json.RawMessage `json:"value"`
	// Type defaults to uint32.
	Type string `json:"type"`
}

type EncryptResponse struct {
	Success       bool            `json:"success"`
	Encrypted     string          `json:"encrypted"`
	Type          string          `json:"type"`
	OriginalValue json.RawMessage `json:"originalValue"`
}

type DecryptRequest struct {
	ContractAddress string `json:"contractAddress"`
	Handle          string `json:"handle"`
	Signature       string `json:"signature,omitempty"`
}

type ComputeRequest struct {
	Operation string            `json:"operation"`
	Operands  []json.RawMessage `json:"operands"`
}

type KeysRequest struct {
	Action string `json:"action"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(c echo.Context, code int, format string, args ...any) error {
	return c.JSON(code, &ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Service) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "healthy",
		"client": s.client.State().String(),
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

// valueString turns the JSON value into the textual form the sdk validators
// take. Strings are unquoted; numbers and bools keep their literal text.
func valueString(raw json.RawMessage) (string, bool) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return "", false
	}
	if strings.HasPrefix(v, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", false
		}
		return str, true
	}
	return v, true
}

func (s *Service) encrypt(c echo.Context) error {
	req := new(EncryptRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	value, ok := valueString(req.Value)
	if !ok {
		return fail(c, http.StatusBadRequest, "Value is required")
	}
	if req.Type == "" {
		req.Type = string(sdk.TypeUint32)
	}
	typ, err := sdk.ParseEncryptedType(req.Type)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Unsupported type")
	}
	if !sdk.ValidateValueForType(value, string(typ)) {
		return fail(c, http.StatusBadRequest, "Invalid value %s for type %s", value, typ)
	}

	if err = s.client.Init(c.Request().Context(), s.getProvider(), nil); err != nil {
		log.Error().Err(err).Msg("fhevm client init failed")
		return fail(c, http.StatusServiceUnavailable, "%s", err)
	}
	encrypted, err := sdk.EncryptValue(s.client, typ, value)
	if err != nil {
		if errors.Is(err, sdk.ErrValidation) {
			return fail(c, http.StatusBadRequest, "%s", err)
		}
		return fail(c, http.StatusInternalServerError, "%s", err)
	}
	return c.JSON(http.StatusOK, &EncryptResponse{
		Success:       true,
		Encrypted:     encrypted.Hex(),
		Type:          string(typ),
		OriginalValue: req.Value,
	})
}

func (s *Service) decrypt(c echo.Context) error {
	req := new(DecryptRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ContractAddress == "" || req.Handle == "" {
		return fail(c, http.StatusBadRequest, "Contract address and handle are required")
	}
	if err := sdk.ValidateContractAddress(req.ContractAddress); err != nil {
		return fail(c, http.StatusBadRequest, "%s", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Decryption must be performed client-side with wallet signature",
		"contractAddress": req.ContractAddress,
		"handle":          req.Handle,
	})
}

func (s *Service) compute(c echo.Context) error {
	req := new(ComputeRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Operation == "" || req.Operands == nil {
		return fail(c, http.StatusBadRequest, "Operation and operands array are required")
	}
	supported := false
	for _, op := range SupportedOperations {
		if op == req.Operation {
			supported = true
			break
		}
	}
	if !supported {
		return fail(c, http.StatusBadRequest, "Unsupported operation. Supported: %s", strings.Join(SupportedOperations, ", "))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Homomorphic computation should be performed on-chain",
		"operation":     req.Operation,
		"operandsCount": len(req.Operands),
		"hint":          "Use smart contract methods for encrypted computations",
	})
}

func (s *Service) getKeys(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Key management is handled client-side",
		"info": map[string]string{
			"publicKey":  "Fetched from the gateway during FHEVM client initialization",
			"privateKey": "Never transmitted - stays in user wallet",
		},
		"client": s.client.State().String(),
	})
}

func (s *Service) postKeys(c echo.Context) error {
	req := new(KeysRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	switch req.Action {
	case "generate":
		return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "Key generation happens during client initialization"})
	case "rotate":
		// the next encrypt request re-initialises and fetches the current
		// network key
		s.client.Close()
		log.Info().Msg("fhevm client closed for key rotation")
		return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "Key rotation requires re-initialization of FHEVM client"})
	default:
		return fail(c, http.StatusBadRequest, "Unsupported action")
	}
}
