/*
Package httpserver runs the enclave server's HTTP listener.

The router mounts the api handlers passed to New next to the operational
endpoints:

  - GET /livez - liveness
  - GET /readyz - 503 while draining
  - GET /drain, GET /undrain - toggle readiness
  - /debug/pprof - when EnablePprof is set

A separate metrics listener serves /metrics on MetricsAddr. Shutdown drains
for DrainDuration before closing both listeners.
*/
package httpserver
