package models

import (
	"encoding/json"
	"fmt"
)

// StatusCode is the delay status attested for a flight.
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// StatusCodes lists every valid status in ascending order.
var StatusCodes = []StatusCode{
	StatusUnknown,
	StatusOnTime,
	StatusLateAirline,
	StatusLateWeather,
	StatusLateTechnical,
	StatusLateOther,
}

var statusNames = map[StatusCode]string{
	StatusUnknown:       "unknown",
	StatusOnTime:        "on_time",
	StatusLateAirline:   "late_airline",
	StatusLateWeather:   "late_weather",
	StatusLateTechnical: "late_technical",
	StatusLateOther:     "late_other",
}

var statusDescriptions = map[StatusCode]string{
	StatusUnknown:       "Unknown",
	StatusOnTime:        "On time",
	StatusLateAirline:   "Late due to airline issues",
	StatusLateWeather:   "Late due to weather",
	StatusLateTechnical: "Late due to technical issues",
	StatusLateOther:     "Late due to other reasons",
}

// Valid reports whether s is one of the known status codes.
func (s StatusCode) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether s can settle a flight.
func (s StatusCode) Terminal() bool {
	return s.Valid() && s != StatusUnknown
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Description returns the label shown to passengers.
func (s StatusCode) Description() string {
	if d, ok := statusDescriptions[s]; ok {
		return d
	}
	return s.String()
}

// MarshalJSON encodes the numeric code.
func (s StatusCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(s))
}

// UnmarshalJSON accepts the numeric code only.
func (s *StatusCode) UnmarshalJSON(data []byte) error {
	var v uint8
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("status code: %w", err)
	}
	*s = StatusCode(v)
	return nil
}

// Flight is a flight registered by a funded airline
type Flight struct {
	ID               string     `json:"id"`
	Airline          string     `json:"airline"`
	StatusCode       StatusCode `json:"statusCode"`
	Status           string     `json:"status"`
	Timestamp        int64      `json:"timestamp"`
	UpdatedTimestamp int64      `json:"updatedTimestamp"`
}

// Settled reports whether the flight has a terminal status.
func (f Flight) Settled() bool {
	return f.StatusCode != StatusUnknown
}
