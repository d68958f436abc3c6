// Package datasync keeps dashboard state in step with the backend.
//
// Each data stream ("latest", "history", "notifications") is an Endpoint
// that refreshes through a Sequencer: starting a request retires the
// previous one for the same stream, and only the newest request may write
// state. Pollers re-trigger refreshes on a fixed period. Dashboard and
// Notifications compose endpoints into the state the TUI renders.
//
// Completions run on their own goroutines. Every Endpoint checks
// Sequencer.IsCurrent and writes its state inside one critical section, so
// the applied state always belongs to the most recently issued request no
// matter which response arrives first.
package datasync
