// Package service provides domain services for the budget snapshot store.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - BudgetService: snapshot create, list, read, update and delete
//
// Services are stateless and safe for concurrent use; every call is a
// single unit of work against the repository.
package service
