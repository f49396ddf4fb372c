/*
Package api holds the HTTP types shared by the enclave server and its
clients, plus the server configuration.

Handlers live in subpackages, each exposing RegisterRoutes(chi.Router) and a
small client:

  - workorderhandler: POST /api/workorder, the JSON-RPC work-order endpoint
  - enclavehandler: GET /api/enclave/info, the enclave keys and attestation
  - adminhandler: /api/admin/*, seed recovery from admin shares
*/
package api
