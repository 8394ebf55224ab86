// Package memory provides an in-memory implementation of all six storage
// contracts. It is suitable for development, testing, and single-instance
// deployments; multi-instance deployments need a shared backend.
package memory
