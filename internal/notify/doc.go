// Package notify publishes API check summaries on the current pull request.
package notify
