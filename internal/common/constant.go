// Package common contains shared constants and sentinel errors used across
// FieldSync components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// outbound sync requests.
const AuthorizationHeaderName = "Authorization"

// DeviceIDKey is the metadata key under which the generated device identity
// is persisted.
const DeviceIDKey = "device_id"
