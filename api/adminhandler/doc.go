// Package adminhandler collects admin seed shares over HTTP while the
// enclave server waits for its seed.
package adminhandler
