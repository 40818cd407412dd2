// Package timeutil abstracts timer scheduling behind an injectable
// capability so timing-sensitive components can be tested against virtual
// time instead of wall-clock sleeps.
package timeutil
