// Package gateway is the HTTP boundary of the service.
//
// It owns no business logic: handlers decode JSON, pull the authenticated
// user off the request context, call the chat service, and translate its
// error taxonomy into status codes. Validation failures are 400 with the
// reason, a foreign conversation is 403 or 404 depending on the operation,
// and everything unexpected is a generic 500 with the detail in the logs.
//
// Gateway also owns process lifecycle: Run blocks until the context is
// canceled and then drains in-flight requests before closing the store.
package gateway
