// Package sensibo is a typed client for the Sensibo climate-control cloud API.
//
// The package is layered leaves first:
//
//   - Transport builds and sends one HTTP request (resty, fixed timeout, no
//     retries) and classifies the outcome.
//   - Decode and DecodeMutation turn response bytes into typed values. Decoding
//     is strict: a missing or mistyped required field, or an unknown mode or
//     fan level, fails the whole decode.
//   - Client exposes one method per API capability and always appends the API
//     key.
//   - Device and Model are the client-held state that mutation responses are
//     written back into.
//
// # Usage Example
//
//	client, err := sensibo.NewClient(sensibo.Options{APIKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	device, err := client.GetDevice(ctx, "Ab3dE9xQ")
//	if err != nil {
//	    log.Fatal(sensibo.ShortMessage(err))
//	}
//
//	resp, err := client.SetACStateProperty(ctx, device.ID, sensibo.PropertyTargetTemperature, 24)
//	if err != nil {
//	    log.Fatal(sensibo.ShortMessage(err))
//	}
//	device.ApplyMutation(resp)
//
// # State Synchronization
//
// A write never updates local state from what was sent. The MutationResponse
// returned by the server is the only source for Device.ApplyMutation, which
// replaces the AC state slice and nothing else. Concurrent writes to the same
// pod are not coordinated: whichever response is applied last wins.
//
// # Error Handling
//
// Every failure is an *APIError with one of four types: ErrTypeUnauthorized,
// ErrTypeParams, ErrTypeDecode or ErrTypeMessage. ShortMessage gives the text
// for an acknowledgement dialog and TroubleshootingHint gives longer advice.
// Nothing in this package retries or exits the process.
//
// # TLS
//
// Server certificate verification is chosen with a TrustPolicy: SystemTrust,
// CAFileTrust or InsecureTrust.
package sensibo
