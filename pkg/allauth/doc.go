// Package allauth holds the wire types of the django-allauth headless
// "browser" API and decodes its responses into tagged outcomes.
//
// The API overloads HTTP 401: it can mean "not logged in" or "one more step
// is required", in which case the body lists flows such as verify_email or
// login_by_code. Decode never decides which of the two applies. It returns
// OutcomeFlowPending and lets the calling operation check Outcome.Pending for
// the flow it expects:
//
//	out := allauth.Decode(resp.StatusCode, resp.Body)
//	switch {
//	case out.Kind == allauth.OutcomeOK, out.Pending(allauth.FlowVerifyEmail):
//	    // signup accepted, verification mandatory
//	default:
//	    return out.Err
//	}
//
// Every failure is normalized into *Error whose Message prefers the payload's
// message, then the HTTP status text, then DefaultErrorMessage.
package allauth
