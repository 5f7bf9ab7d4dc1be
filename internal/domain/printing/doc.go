// Package printing contains the Printing bounded context.
// This context models the documents a client hands to the gateway, the
// options a job is submitted with, and the spooler's view of its devices.
//
// Nothing here talks to the filesystem or to CUPS. Infrastructure packages
// produce and consume these values:
//
//   - storage produces DocumentHandle values
//   - spooler produces Device values and consumes PrintOptions
//   - the application layer publishes StatusSnapshot values
package printing
