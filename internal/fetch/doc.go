// Package fetch retrieves page content over HTTP.
//
// The Client performs one fetch attempt with a bounded response body
// and a per-attempt timeout. Transport failures are wrapped in
// TransportError so the crawler can tell transient network trouble
// (retried with exponential backoff) apart from validation rejections
// (terminal). An HTTP error status is not a transport error: the
// response is handed to the validation policy, which owns that
// decision.
package fetch
