package utils

import "time"

// APIResponse is the envelope every handler answers with. Errors lists
// per-item failures of an operation that otherwise succeeded.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Errors    []string    `json:"errors,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func respond(success bool, message string) APIResponse {
	return APIResponse{Success: success, Message: message, Timestamp: time.Now().UTC()}
}

func SuccessResponse(message string, data interface{}) APIResponse {
	r := respond(true, message)
	r.Data = data
	return r
}

func ErrorResponse(message, err string) APIResponse {
	r := respond(false, message)
	r.Error = err
	return r
}

// PartialResponse is a success carrying the items that could not be applied.
func PartialResponse(message string, data interface{}, errs []string) APIResponse {
	r := SuccessResponse(message, data)
	if len(errs) > 0 {
		r.Errors = errs
	}
	return r
}
