/*
Package workorder implements the confidential work-order pipeline.

A work order is a JSON-RPC request whose params carry participant metadata and
a Data array of items. Each item names its Type and carries a BLOB, optionally
encrypted with a per-item AES-GCM key that is itself wrapped to the enclave
(EncryptedDataEncryptionKey) and optionally checked against a Sha256Hash.

Processing runs through these stages:

  - parsed: required params are present and every item is unpacked
  - verified: the participant signature is accepted
  - executed: the "code" item is resolved through the dispatch registry and
    its interpreter or contract executor produces outputs
  - signed: the packed outputs are signed by the enclave
  - serialized: the JSON-RPC success response is built

Any failure produces a JSON-RPC error response whose code is derived from the
error kind (see interfaces.ErrorCode). Process never returns an error.
*/
package workorder
