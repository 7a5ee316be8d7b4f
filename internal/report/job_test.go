package report

import (
	"strings"
	"testing"
)

func TestDecodeJob(t *testing.T) {
	payload := []byte(`{
		"reportId": "FLOOD-001",
		"type": "flood",
		"longitude": -118.2437,
		"latitude": 34.0522,
		"callbackUrl": "https://backend.example.com/webhooks/verification"
	}`)

	job, err := DecodeJob(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ReportID != "FLOOD-001" || job.Type != "flood" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Longitude != -118.2437 || job.Latitude != 34.0522 {
		t.Fatalf("unexpected coordinates: %+v", job)
	}
	if job.CallbackURL != "https://backend.example.com/webhooks/verification" {
		t.Fatalf("unexpected callback url: %s", job.CallbackURL)
	}
}

func TestDecodeJobStringCoordinates(t *testing.T) {
	payload := []byte(`{"reportId":"R1","type":"fire","longitude":"2.2945","latitude":"48.8584"}`)

	job, err := DecodeJob(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Longitude != 2.2945 || job.Latitude != 48.8584 {
		t.Fatalf("unexpected coordinates: %+v", job)
	}
}

func TestDecodeJobMissingFields(t *testing.T) {
	cases := map[string]string{
		`{"type":"fire","longitude":1,"latitude":1}`:       "reportId is required",
		`{"reportId":"R1","longitude":1,"latitude":1}`:     "type is required",
		`{"reportId":"R1","type":"fire","latitude":1}`:     "longitude is required",
		`{"reportId":"R1","type":"fire","longitude":1}`:    "latitude is required",
		`{"reportId":"R1","type":"fire","longitude":"x"}`:  "longitude is not a number",
		`{"reportId":"R1","type":"fire","longitude":true}`: "longitude is not a number",
	}

	for payload, wantErr := range cases {
		_, err := DecodeJob([]byte(payload))
		if err == nil {
			t.Fatalf("expected error for %s", payload)
		}
		if !strings.Contains(err.Error(), wantErr) {
			t.Fatalf("payload %s: expected error containing %q, got %q", payload, wantErr, err)
		}
	}
}

func TestDecodeJobCoordinateRanges(t *testing.T) {
	cases := []string{
		`{"reportId":"R1","type":"fire","longitude":0,"latitude":90.1}`,
		`{"reportId":"R1","type":"fire","longitude":0,"latitude":-90.1}`,
		`{"reportId":"R1","type":"fire","longitude":180.5,"latitude":0}`,
		`{"reportId":"R1","type":"fire","longitude":-180.5,"latitude":0}`,
	}

	for _, payload := range cases {
		if _, err := DecodeJob([]byte(payload)); err == nil {
			t.Fatalf("expected range error for %s", payload)
		}
	}

	// Boundary values are valid.
	if _, err := DecodeJob([]byte(`{"reportId":"R1","type":"fire","longitude":180,"latitude":-90}`)); err != nil {
		t.Fatalf("boundary coordinates rejected: %v", err)
	}
}

func TestDecodeJobMalformedJSON(t *testing.T) {
	if _, err := DecodeJob([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
