// Command enclave-server serves the work-order API.
//
// The enclave keys are derived from a 32-byte seed. The seed is given
// directly, derived from a passphrase, or recovered from admin shares. In
// the last case the server starts with only /api/admin/* usable and
// answers 503 on the work-order and enclave-info endpoints until enough
// shares have been submitted.
//
// Outputs are archived only to locations listed with --output-link-allow. An
// item's OutputLink selects one of them by scheme, host and path; other
// links are ignored.
//
//	enclave-server --enclave-seed=$(openssl rand -hex 32) --archive file:///var/lib/workorders \
//		--output-link-allow 's3://AK:SK@outputs/wo?region=eu-west-1'
//
//	enclave-server --admin-keys-file=admins.json --share-threshold=2 --attestation=qemu-tdx
package main
