package object

import (
	"github.com/nextgraph-org/ng-core/ng"
	"golang.org/x/crypto/chacha20"
	"lukechampine.com/blake3"
)

// convergenceKeyContext is the domain-separation string the original
// assembler derives the per-store convergence key under.
const convergenceKeyContext = "NextGraph Data BLAKE3 key"

// ConvergenceKey derives the per-store, per-author convergence key that
// seeds every block's content-derived encryption key (spec §4.2). It is a
// function of the store secret and the repo-scoped public key only, never
// of content, so any two peers holding the same pair converge on the same
// keying for the same plaintext.
func ConvergenceKey(storeSecret ng.SymKey, pub ng.PubKey) ng.SymKey {
	material := make([]byte, 0, len(pub)+len(storeSecret))
	material = append(material, pub[:]...)
	material = append(material, storeSecret[:]...)
	h := blake3.NewDeriveKey(convergenceKeyContext)
	h.Write(material)
	var out ng.SymKey
	copy(out[:], h.Sum(nil))
	return out
}

// blockKey derives the per-block symmetric key: a keyed hash of the
// convergence key over the block's plaintext. Two blocks with identical
// plaintext under the same convergence key always derive the same key,
// which is the deduplication property the spec's safety argument for
// zero-nonce ChaCha20 depends on (never reusing a key across distinct
// plaintexts).
func blockKey(convKey ng.SymKey, plaintext []byte) ng.SymKey {
	h := blake3.New(32, convKey[:])
	h.Write(plaintext)
	var out ng.SymKey
	copy(out[:], h.Sum(nil))
	return out
}

// cryptBlock runs plaintext through ChaCha20 under key with an all-zero
// nonce, encrypting or decrypting symmetrically (the same call does both).
// Safe only because blockKey guarantees a fresh key per distinct plaintext.
func cryptBlock(key ng.SymKey, data []byte) ([]byte, error) {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.XORKeyStream(out, data)
	return out, nil
}
