// Package core holds the pure part of the lending domain: the borrowing transaction, the events
// that change it, the projection from events to transactions, and the error taxonomy.
//
// Nothing in here performs I/O.
package core
