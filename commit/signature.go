package commit

import (
	"crypto"
	"crypto/rand"

	"github.com/veraison/go-cose"
)

// SignatureObject is the concrete shape of the "signature object" that
// AsyncSignature/SyncSignature commit bodies point at (spec §3): a
// COSE_Sign1 envelope over the ids of the commits it confirms, adapted from
// the teacher's massifs/cose + rootsigner.go Sign1 pattern. The signed
// payload is embedded in the message, not detached, and the signer and
// algorithm are whatever the caller passes to NewSignatureObject.
type SignatureObject struct {
	// Bytes is the CBOR-encoded COSE_Sign1 message, ready to store as the
	// content of its own Object.
	Bytes []byte
}

// NewSignatureObject signs payload (typically the CBOR-encoded list of
// confirmed commit ids) under signer, tagging the protected header with
// alg the same way RootSigner.Sign1 tags HeaderLabelAlgorithm.
func NewSignatureObject(signer crypto.Signer, alg cose.Algorithm, payload []byte) (*SignatureObject, error) {
	coseSigner, err := cose.NewSigner(alg, signer)
	if err != nil {
		return nil, err
	}
	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: alg,
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, nil, coseSigner); err != nil {
		return nil, err
	}
	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return &SignatureObject{Bytes: data}, nil
}

// Verify checks the envelope against verifier and returns the signed
// payload on success.
func (s *SignatureObject) Verify(verifier cose.Verifier) ([]byte, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(s.Bytes); err != nil {
		return nil, err
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return nil, err
	}
	return msg.Payload, nil
}
