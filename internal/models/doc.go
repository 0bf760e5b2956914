// Package models defines the core domain models for Splitflow.
//
// # Models
//
//   - Profile: display data for a user known to the service
//   - Group: a named set of members sharing expenses, administered by its creator
//   - Expense: one payment made by a member on behalf of a group
//   - Split: one member's owed share of one expense
//
// Users are identified by opaque string IDs issued by the external identity
// provider. Relationships are expressed with ID strings rather than pointers.
//
// # Lifecycle
//
// A group is created by a user, who becomes its first member and permanent
// admin. Members are added over time. Expenses are immutable once recorded.
// Deleting a group deletes its expenses and splits.
package models
