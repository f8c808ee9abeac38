package models

import (
	"encoding/json"
	"time"
)

// EventType names an event published by the engine.
type EventType string

const (
	EventRegisteredAirline EventType = "RegisteredAirline"
	EventAirlineFunded     EventType = "AirlineFunded"
	EventOracleRequest     EventType = "OracleRequest"
	EventOracleReport      EventType = "OracleReport"
	EventFlightStatusInfo  EventType = "FlightStatusInfo"
	EventInsureeCredited   EventType = "InsureeCredited"
	EventPayoutWithdrawn   EventType = "PayoutWithdrawn"
)

// Event is a committed state change. Only the fields relevant to Type are set.
type Event struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	CreatedAt time.Time `json:"createdAt"`

	AirlineID string `json:"airlineId,omitempty"`
	Name      string `json:"name,omitempty"`

	Index           int        `json:"index"`
	Airline         string     `json:"airline,omitempty"`
	FlightID        string     `json:"flightId,omitempty"`
	FlightTimestamp int64      `json:"timestamp,omitempty"`
	StatusCode      StatusCode `json:"statusCode"`
	OracleID        string     `json:"oracleId,omitempty"`

	Passenger string `json:"passenger,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
}

// RequestKey returns the oracle request key carried by OracleRequest and
// OracleReport events.
func (e Event) RequestKey() OracleRequestKey {
	return OracleRequestKey{
		Index:     e.Index,
		Airline:   e.Airline,
		FlightID:  e.FlightID,
		Timestamp: e.FlightTimestamp,
	}
}

func (e Event) String() string {
	data, _ := json.Marshal(e)
	return string(data)
}
