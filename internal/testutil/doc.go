// Package testutil provides testing utilities and test fixtures for the
// grantkit library. It includes helpers for creating test data and
// assertions shared across package tests.
package testutil
