// Package hop implements an in-memory, typed key-value store ("the engine")
// and the binary request/response wire protocol used to drive it over a
// connection.
//
// The engine owns a [State] mapping keys to typed [Value]s, dispatches
// decoded [Request]s against that state through [Engine.Dispatch], and
// writes exactly one [Response] frame per dispatch. [RequestDecoder] and
// [ResponseDecoder] are resumable state machines meant to sit on top of a
// byte stream supplied in arbitrarily sized chunks; neither allocates for
// the full size of a large argument or value up front.
//
// Callers that want a friendlier surface than raw requests/responses should
// use the client package, which offers one method per command family and
// both an in-process and a networked backend.
package hop
