package sui

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/block-vision/sui-go-sdk/signer"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	privateKeyHRP = "suiprivkey"
	ed25519Flag   = 0x00
	seedSize      = 32
)

// ErrSignerNotConfigured is returned when no signer secret is set.
var ErrSignerNotConfigured = errors.New("sui signer secret is not configured")

// ResolveSigner builds an ed25519 signer from a configured secret. It accepts
// a Bech32 "suiprivkey1..." export (ed25519 only) or a base64 raw secret key.
func ResolveSigner(secret string) (*signer.Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSignerNotConfigured
	}

	if strings.HasPrefix(secret, privateKeyHRP) {
		return fromBech32(secret)
	}

	return fromBase64(secret)
}

func fromBech32(secret string) (*signer.Signer, error) {
	hrp, data, err := bech32.DecodeToBase256(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid sui private key: %w", err)
	}
	if hrp != privateKeyHRP {
		return nil, fmt.Errorf("invalid sui private key prefix %q", hrp)
	}
	if len(data) != seedSize+1 {
		return nil, fmt.Errorf("invalid sui private key length %d", len(data))
	}
	if data[0] != ed25519Flag {
		return nil, fmt.Errorf("unsupported signature scheme flag 0x%02x, expected ed25519", data[0])
	}

	return signer.NewSigner(data[1:]), nil
}

func fromBase64(secret string) (*signer.Signer, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("signer secret is neither a sui private key nor base64: %w", err)
	}

	switch len(raw) {
	case seedSize:
		return signer.NewSigner(raw), nil
	case seedSize + 1:
		// Keystore format: scheme flag followed by the seed
		if raw[0] != ed25519Flag {
			return nil, fmt.Errorf("unsupported signature scheme flag 0x%02x, expected ed25519", raw[0])
		}
		return signer.NewSigner(raw[1:]), nil
	case 2 * seedSize:
		// Seed followed by the public key
		return signer.NewSigner(raw[:seedSize]), nil
	default:
		return nil, fmt.Errorf("invalid secret key length %d", len(raw))
	}
}
