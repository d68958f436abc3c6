// Package cli implements the aidash command-line interface.
//
// Each Cobra command parses its flags, loads config through loadConfig and
// hands off to a plain function (serversCommand, snapshotCommand, ...) that
// takes a context, an io.Writer and the resolved config. The functions are
// what the tests drive against an httptest backend.
//
// # Command Structure
//
//	aidash monitor         - Live dashboard (Bubble Tea) driven by datasync
//	aidash servers         - List registered servers
//	aidash snapshot        - Print the latest metrics for a server
//	aidash history         - Summarize a history window with sparklines
//	aidash notifications   - Print the feed, optionally marking it read
//	aidash login / logout  - Manage the stored session
//	aidash config          - init, show and set config values
//
// # Output
//
// One-shot commands accept --json. Successful output and failures are both
// written to stdout in a JSONEnvelope; on failure the command returns
// errSilent so Execute exits 1 without printing anything else. Without
// --json, failures surface as *errors.Error values that Execute prints to
// stderr.
//
// # Requests
//
// newClient builds an api.Client with the stored session restored, and
// requestContext bounds each one-shot request by api.timeout. The monitor
// command instead hands the client to the datasync controllers, which
// apply the same timeout per request.
package cli
