package models

// Airline is a governed participant
type Airline struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsRegistered bool   `json:"isRegistered"`
	IsFunded     bool   `json:"isFunded"`
	Funds        int64  `json:"funds"`
}

// PendingApplication collects votes for a candidate airline
type PendingApplication struct {
	CandidateID   string   `json:"candidateId"`
	Name          string   `json:"name"`
	Voters        []string `json:"voters"`
	RequiredVotes int      `json:"requiredVotes"`
}

// HasVoted reports whether id already voted for the candidate.
func (p PendingApplication) HasVoted(id string) bool {
	for _, v := range p.Voters {
		if v == id {
			return true
		}
	}
	return false
}

// Admission is the result of a registerAirline call
type Admission struct {
	AirlineID     string `json:"airlineId"`
	Admitted      bool   `json:"admitted"`
	Votes         int    `json:"votes"`
	RequiredVotes int    `json:"requiredVotes"`
}
