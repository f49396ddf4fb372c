package interfaces

// EnclaveKMS holds the enclave's key material and exposes the operations the
// work-order pipeline needs from it.
type EnclaveKMS interface {
	KeyUnwrapper
	Signer

	// Info returns the enclave's public keys together with a fresh attestation.
	Info() (EnclaveInfo, error)
}
