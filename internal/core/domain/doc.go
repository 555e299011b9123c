// Package domain defines the core domain models for the budget snapshot store.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Budget: a named snapshot with an ordering timestamp and a state document
//   - Summary: the list view of a Budget
//   - State: the opaque JSON document, kept as a tagged value
//   - Errors: domain-specific error definitions
package domain
