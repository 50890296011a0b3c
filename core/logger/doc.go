// Package logger is a standardized event logging framework for the
// shell server. Events are written as newline delimited JSON so logs
// can be tailed, shipped, and replayed with standard tooling.
package logger
