package inbound

import "net/http"

/* Result is the structured outcome handed back to the front door
 * StatusCode drives the HTTP response; the remaining fields form the JSON body
 */
type Result struct {
	StatusCode     int    `json:"-"`
	Message        string `json:"message"`
	Processed      bool   `json:"processed"`
	Action         string `json:"action,omitempty"`
	EventType      string `json:"event_type,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Verdict        string `json:"verdict,omitempty"`
	StorageError   string `json:"storage_error,omitempty"`
	RequiresReview bool   `json:"requires_manual_review,omitempty"`
}

// Unauthorized builds the result for a failed verification
func Unauthorized(verdict string) Result {
	return Result{
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid webhook signature",
		Verdict:    verdict,
	}
}

// BadRequest builds the result for a malformed payload
func BadRequest() Result {
	return Result{
		StatusCode: http.StatusBadRequest,
		Message:    "invalid JSON payload",
	}
}
