package kms

// PlaceholderSigner returns fixed values instead of a real signature. It is
// for deployments whose participants do not check enclave signatures yet.
type PlaceholderSigner struct{}

const (
	PlaceholderNonce     = "123"
	PlaceholderSignature = "99999"
)

func (PlaceholderSigner) Sign([]byte) (string, string, error) {
	return PlaceholderNonce, PlaceholderSignature, nil
}
