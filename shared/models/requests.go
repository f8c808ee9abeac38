package models

// SetOperationalRequest toggles the operational flag
type SetOperationalRequest struct {
	Operational bool `json:"operational"`
}

// AuthorizeRequest adds an identity to the allow-list
type AuthorizeRequest struct {
	ID string `json:"id"`
}

// ValueRequest carries an amount in minor units
type ValueRequest struct {
	Value int64 `json:"value"`
}

// RegisterAirlineRequest admits or votes for a candidate airline
type RegisterAirlineRequest struct {
	AirlineID string `json:"airlineId"`
	Name      string `json:"name"`
}

// RegisterFlightRequest registers a flight for the calling airline
type RegisterFlightRequest struct {
	FlightID  string `json:"flightId"`
	Timestamp int64  `json:"timestamp"`
}

// FetchFlightStatusRequest asks the oracles for a flight's status
type FetchFlightStatusRequest struct {
	Airline   string `json:"airline"`
	Timestamp int64  `json:"timestamp"`
}

// RegisterOracleRequest registers the caller as an oracle
type RegisterOracleRequest struct {
	Bond int64 `json:"bond"`
}

// OracleResponseRequest is an oracle's answer to a status request
type OracleResponseRequest struct {
	Index      int        `json:"index"`
	Airline    string     `json:"airline"`
	FlightID   string     `json:"flightId"`
	Timestamp  int64      `json:"timestamp"`
	StatusCode StatusCode `json:"statusCode"`
}

// SystemStatus summarises the engine for clients
type SystemStatus struct {
	Operational     bool   `json:"operational"`
	RegistrationFee int64  `json:"registrationFee"`
	VaultBalance    int64  `json:"vaultBalance"`
	Liabilities     int64  `json:"liabilities"`
	Reserved        int64  `json:"reserved"`
	RegisteredCount int    `json:"registeredCount"`
	Owner           string `json:"owner"`
}

// StatusRequestResponse reports the request opened by fetchFlightStatus
type StatusRequestResponse struct {
	Index     int    `json:"index"`
	Airline   string `json:"airline"`
	FlightID  string `json:"flightId"`
	Timestamp int64  `json:"timestamp"`
}

// WithdrawResponse reports the value paid out by a withdrawal
type WithdrawResponse struct {
	FlightID string `json:"flightId"`
	Paid     int64  `json:"paid"`
}
