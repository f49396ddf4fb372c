// Package storage archives work-order outputs and responses in
// content-addressed storage backends.
//
// Backends are selected by location URI:
//
//	file:///var/lib/workorders
//	s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-west-2&endpoint=http://minio:9000&pathstyle=true
//	ipfs://localhost:5001/workorders?timeout=30s
//	vault://[TOKEN@]vault.example.com:8200/secret/workorders?tls=false
//
// Content is keyed by the SHA-256 of the stored bytes. Outputs and
// responses are kept in separate namespaces within each backend.
//
// The Archiver is called after a response has been produced. A packed
// output is stored only when its OutputLink names one of the output
// locations the Archiver was created with, compared by scheme, host and path
// (credentials and parameters come from the configured location). The whole
// response is stored in the backends passed with --archive. Archive failures
// are logged and never change the response.
package storage
