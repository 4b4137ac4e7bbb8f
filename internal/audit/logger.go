package audit

import (
	"net/http"

	"github.com/onnwee/cropadvisor/internal/middleware"
)

// FromRequest builds a Record for action on target, taking the actor and
// request metadata from r. The actor is the authenticated caller's email.
func FromRequest(r *http.Request, action, target, outcome string) Record {
	ctx := r.Context()
	return Record{
		Actor:     middleware.GetUserEmail(ctx),
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		RequestID: middleware.GetRequestID(ctx),
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
