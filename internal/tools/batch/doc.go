// Package batch provides parameter helpers for tools that operate on
// several IDs at once.
package batch
