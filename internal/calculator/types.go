package calculator

import "go-chi-calculator/internal/equation"

// CalcRequest is the JSON body for binary operations (add, subtract, multiply,
// divide, percent).
type CalcRequest struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// CalcResponse is the JSON response for binary operations.
type CalcResponse struct {
	Operation  string  `json:"operation"`
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	Expression string  `json:"expression"`
	Result     string  `json:"result"`
}

// KeysRequest carries a key sequence such as "12+3x4=" or "AC 5 +/- =".
type KeysRequest struct {
	Keys string `json:"keys"`
}

// KeyStep records the display after one key of a replay.
type KeyStep struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Steps []KeyStep         `json:"steps"`
	State equation.Snapshot `json:"state"`
}

// SessionStats counts what a session has processed. Ignored keys are those
// that left the state unchanged, such as a second operator in a row.
type SessionStats struct {
	Keys        int `json:"keys"`
	Evaluations int `json:"evaluations"`
	Ignored     int `json:"ignored"`
}

// SessionResponse is the JSON response for the session endpoints.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	State     equation.Snapshot `json:"state"`
	Stats     SessionStats      `json:"stats"`
}
