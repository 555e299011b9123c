// Package storage provides the durable record tables for budget snapshots.
//
// Two backends implement the Table interface:
//
//   - BadgerTable: embedded LSM key-value store (on disk or in memory),
//     with a timestamp index for list order and optional record sealing
//   - SQLiteTable: a single budgets table in an SQLite database file
//
// Open selects the backend from a connection target such as
// "badger:///var/lib/presupuesto", "memory://" or "sqlite:///./data/app.db".
// Every table call is one transaction; tables hold no state between calls.
package storage
