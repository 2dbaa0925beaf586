// Package envelope implements the hybrid public-key/symmetric message
// layer (§4.3) Visa Direct calls MLE: each request body is wrapped in a
// JWE using RSA-OAEP-256 to wrap a one-time content-encryption key and
// A256GCM to encrypt the body with it, with the recipient's encryption key
// identified by a "kid" header so the server can pick the matching key out
// of a rotating key set.
package envelope

import (
	"crypto/rsa"

	"github.com/go-jose/go-jose/v4"

	"visadirect-sdk-go/internal/payout"
)

// Seal wraps plaintext in a compact JWE addressed to pub, tagging the
// output with kid so the recipient's key-set cache can pick the matching
// private key on decrypt.
func Seal(plaintext []byte, pub *rsa.PublicKey, kid string) (string, error) {
	recipient := jose.Recipient{Algorithm: jose.RSA_OAEP_256, Key: pub, KeyID: kid}
	encrypter, err := jose.NewEncrypter(jose.A256GCM, recipient, nil)
	if err != nil {
		return "", payout.Wrap(payout.KindEnvelopeDecryptFailure, "build encrypter", err)
	}

	obj, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", payout.Wrap(payout.KindEnvelopeDecryptFailure, "seal envelope", err)
	}

	serialized, err := obj.CompactSerialize()
	if err != nil {
		return "", payout.Wrap(payout.KindEnvelopeDecryptFailure, "serialize envelope", err)
	}
	return serialized, nil
}

// Kid extracts the "kid" header from a compact JWE without decrypting it,
// so the caller can select which private key to decrypt with.
func Kid(compact string) (string, error) {
	obj, err := jose.ParseEncrypted(compact, []jose.KeyAlgorithm{jose.RSA_OAEP_256}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return "", payout.Wrap(payout.KindEnvelopeDecryptFailure, "parse envelope", err)
	}
	if len(obj.Header.KeyID) == 0 {
		return "", payout.New(payout.KindKeyIDUnknown, "envelope carries no kid")
	}
	return obj.Header.KeyID, nil
}

// Open decrypts a compact JWE with priv. Callers are expected to have
// already resolved priv from the kid returned by Kid.
func Open(compact string, priv *rsa.PrivateKey) ([]byte, error) {
	obj, err := jose.ParseEncrypted(compact, []jose.KeyAlgorithm{jose.RSA_OAEP_256}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, payout.Wrap(payout.KindEnvelopeDecryptFailure, "parse envelope", err)
	}

	plaintext, err := obj.Decrypt(priv)
	if err != nil {
		return nil, payout.Wrap(payout.KindEnvelopeDecryptFailure, "decrypt envelope", err)
	}
	return plaintext, nil
}
