// Package workorderhandler exposes the work-order processor over HTTP and
// archives successful outputs.
package workorderhandler
