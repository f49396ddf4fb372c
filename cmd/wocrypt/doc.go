// Command wocrypt prepares and inspects work orders on the participant side
// and handles admin seed shares.
//
//	wocrypt info --server-addr http://enclave:8080 -o enclave.json
//	wocrypt encrypt --server-addr http://enclave:8080 -i request.json -o request.enc.json
//	wocrypt sign --participant-key $KEY -i request.enc.json -o request.signed.json
//	wocrypt submit --server-addr http://enclave:8080 -i request.signed.json -o response.json
//	wocrypt decrypt -i response.json
//	wocrypt fetch --storage file:///var/lib/wo/archive --id <content id>
//
// Data keys are kept per item Type in --keys-file, so a response can be
// decrypted with the keys used for its request.
//
// Seed shares are written as plain hex files. Hand each file only to the
// admin it belongs to.
package main
