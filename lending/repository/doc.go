// Package repository is the only way the lending core reads and writes borrowing transactions.
//
// Transactions are stored as events. Every write follows the same cycle: query the events that
// decide the write, fold them into transactions, check the rules, and append conditionally on
// "nothing relevant was appended since my query". A lost race surfaces as
// eventstore.ErrConcurrencyConflict and the whole cycle is retried with exponential backoff.
package repository
