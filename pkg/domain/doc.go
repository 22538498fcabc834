// Package domain contains the core types of the patron-registration pipeline:
// the registration request collected by the form, the notification derived from
// it, and the result handed back to the caller. Types here are free of transport
// concerns so the form client, the dispatcher and the outbound clients can share
// them. Field rules live next to the types as pure functions.
package domain
