// Package stats derives aggregate figures from an in-memory list of plays.
//
// Every function is pure: inputs are never mutated and the same input always
// yields the same output.
package stats
