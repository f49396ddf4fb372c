// Package enclavehandler publishes the enclave encryption key, signing
// address and attestation.
package enclavehandler
