// Package testdoubles provides spies and fakes for the lending tests: a slog handler spy, a metrics
// collector spy, an in-memory payment gateway, a notification sender and an alerter.
package testdoubles
