package main

import "agrisight/analysis"

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

// cubePayload carries a multi-band reflectance image supplied by an external
// image source: row-major, pixel-interleaved samples.
type cubePayload struct {
	Rows  int       `json:"rows"`
	Cols  int       `json:"cols"`
	Bands int       `json:"bands"`
	Data  []float64 `json:"data"`
}

// runAnalysisReq triggers one pipeline run. Cube is optional: without an
// image the classifier degrades to its fallback grid and the alert carries
// the verification caveat.
type runAnalysisReq struct {
	DeviceID     string       `json:"device_id,omitempty"`
	HorizonHours int          `json:"horizon_hours,omitempty"`
	Cube         *cubePayload `json:"cube,omitempty"`
}

// createAlertReq raises a manual alert alongside the fused ones.
type createAlertReq struct {
	Priority        analysis.Priority `json:"priority"`
	Findings        []string          `json:"findings"`
	Recommendations []string          `json:"recommendations,omitempty"`
	DeviceID        string            `json:"device_id,omitempty"`
	Confidence      float64           `json:"confidence,omitempty"`
}

type statusResp struct {
	Status           string  `json:"status"`
	ConnectedDevices int64   `json:"connected_devices"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Version          string  `json:"version"`
}
