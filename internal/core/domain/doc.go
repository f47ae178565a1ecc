// Package domain defines the core domain models for varmesh.
//
// Domain models are pure value objects and errors without any
// IO dependencies or framework coupling.
package domain
