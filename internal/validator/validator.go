package validator

import (
	"fmt"
	"strings"

	"github.com/scuttlekit/scuttle/internal/fetch"
)

// Policy judges fetched responses. Check returns nil when the response is
// acceptable, and a *Rejection describing why otherwise.
type Policy interface {
	Check(resp *fetch.Response) error
}

// Rejection is the error returned when a policy turns a response down.
// The reason is recorded on the page as its failure reason.
type Rejection struct {
	Reason string
}

// Error returns the rejection reason.
func (r *Rejection) Error() string {
	return r.Reason
}

// Reject builds a *Rejection with a formatted reason.
func Reject(format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// DefaultPolicy accepts responses with a 2xx status and a non-empty body.
// The optional constraints narrow it further.
type DefaultPolicy struct {
	// AllowedContentTypes, when non-empty, restricts accepted responses to
	// those whose Content-Type matches one of the given prefixes
	// (e.g. "text/html" matches "text/html; charset=utf-8").
	AllowedContentTypes []string

	// MaxBodySize, when positive, rejects bodies longer than this many bytes.
	MaxBodySize int
}

// NewDefaultPolicy returns a policy that accepts any 2xx response with a
// non-empty body.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{}
}

// Check implements Policy.
func (p *DefaultPolicy) Check(resp *fetch.Response) error {
	if resp.Status < 200 || resp.Status > 299 {
		return Reject("http status %d", resp.Status)
	}
	if len(resp.Body) == 0 {
		return Reject("empty response body")
	}
	if p.MaxBodySize > 0 && len(resp.Body) > p.MaxBodySize {
		return Reject("body size %d exceeds limit %d", len(resp.Body), p.MaxBodySize)
	}
	if len(p.AllowedContentTypes) > 0 {
		ct := resp.ContentType()
		for _, allowed := range p.AllowedContentTypes {
			if strings.HasPrefix(ct, allowed) {
				return nil
			}
		}
		return Reject("content type %q not allowed", ct)
	}
	return nil
}
