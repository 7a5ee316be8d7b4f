package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Job is a verification request as it travels on the wire, both as the queue
// message body and the API request body. Field names follow the reporting
// backend's contract.
type Job struct {
	ReportID    string  `json:"reportId"`
	Type        string  `json:"type"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	CallbackURL string  `json:"callbackUrl,omitempty"`
}

// jobWire tolerates coordinates arriving as JSON strings, which some backends
// send.
type jobWire struct {
	ReportID    string          `json:"reportId"`
	Type        string          `json:"type"`
	Longitude   json.RawMessage `json:"longitude"`
	Latitude    json.RawMessage `json:"latitude"`
	CallbackURL string          `json:"callbackUrl"`
}

// DecodeJob parses a job payload and validates its required fields.
func DecodeJob(payload []byte) (*Job, error) {
	var wire jobWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("malformed job payload: %w", err)
	}

	job := &Job{
		ReportID:    wire.ReportID,
		Type:        wire.Type,
		CallbackURL: wire.CallbackURL,
	}

	var err error
	if job.Longitude, err = coordinate(wire.Longitude, "longitude"); err != nil {
		return nil, err
	}
	if job.Latitude, err = coordinate(wire.Latitude, "latitude"); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks required fields and coordinate ranges.
func (j *Job) Validate() error {
	if j.ReportID == "" {
		return errors.New("reportId is required")
	}
	if j.Type == "" {
		return errors.New("type is required")
	}
	if j.Latitude < -90 || j.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", j.Latitude)
	}
	if j.Longitude < -180 || j.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", j.Longitude)
	}
	return nil
}

func coordinate(raw json.RawMessage, field string) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%s is required", field)
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return asFloat, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0, fmt.Errorf("%s is not a number", field)
	}
	value, err := strconv.ParseFloat(asString, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %w", field, err)
	}
	return value, nil
}
