// Package status tracks what happened to each file during a sync run and
// renders run reports.
package status
