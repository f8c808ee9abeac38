package models

import "fmt"

// OracleRegistration is a bonded oracle and the indexes it may answer
type OracleRegistration struct {
	ID      string `json:"id"`
	Indexes []int  `json:"indexes"`
}

// HasIndex reports whether the oracle was assigned index.
func (o OracleRegistration) HasIndex(index int) bool {
	for _, i := range o.Indexes {
		if i == index {
			return true
		}
	}
	return false
}

// OracleRequestKey identifies a status request.
type OracleRequestKey struct {
	Index     int    `json:"index"`
	Airline   string `json:"airline"`
	FlightID  string `json:"flightId"`
	Timestamp int64  `json:"timestamp"`
}

func (k OracleRequestKey) String() string {
	return fmt.Sprintf("%d/%s/%s/%d", k.Index, k.Airline, k.FlightID, k.Timestamp)
}

// OracleRequest collects oracle responses for one key
type OracleRequest struct {
	OracleRequestKey
	Requester   string                  `json:"requester"`
	Responses   map[StatusCode][]string `json:"responses"`
	Finalized   bool                    `json:"finalized"`
	FinalStatus StatusCode              `json:"finalStatus"`
}

// Responded reports whether oracleID has answered this request.
func (r OracleRequest) Responded(oracleID string) bool {
	for _, ids := range r.Responses {
		for _, id := range ids {
			if id == oracleID {
				return true
			}
		}
	}
	return false
}

// ResponseOutcome is the result of a single oracle response
type ResponseOutcome struct {
	Accepted  bool       `json:"accepted"`
	Finalized bool       `json:"finalized"`
	Status    StatusCode `json:"status"`
	Count     int        `json:"count"`
}
