package models

// OracleRegistrationInput lists the identities the supplier registers
type OracleRegistrationInput struct {
	OracleIDs []string `json:"oracleIds"`
	Bond      int64    `json:"bond"`
	// Attempts per identity; zero uses the worker default.
	Attempts int32 `json:"attempts,omitempty"`
}

// OracleRegistrationResult reports the fleet after registration
type OracleRegistrationResult struct {
	Registered []OracleRegistration `json:"registered"`
	Failed     []string             `json:"failed,omitempty"`
}

// FlightStatusInput is the request a FlightStatusWorkflow answers
type FlightStatusInput struct {
	OracleRequestKey
}

// SubmitResponseInput is a single oracle submission
type SubmitResponseInput struct {
	OracleID string           `json:"oracleId"`
	Request  OracleRequestKey `json:"request"`
}

// SubmitResponseResult reports what the engine did with a submission
type SubmitResponseResult struct {
	OracleID   string     `json:"oracleId"`
	StatusCode StatusCode `json:"statusCode"`
	Finalized  bool       `json:"finalized"`
}

// FlightStatusResult summarises the answers given for one request
type FlightStatusResult struct {
	Matching  int  `json:"matching"`
	Submitted int  `json:"submitted"`
	Failed    int  `json:"failed"`
	Finalized bool `json:"finalized"`
}
