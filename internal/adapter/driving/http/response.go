package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Repository string `json:"repository"`
	Time       string `json:"time"`
}

// CycleResponse is the JSON representation of one polling cycle.
type CycleResponse struct {
	StartedAt  string            `json:"started_at"`
	FinishedAt string            `json:"finished_at"`
	Threshold  float64           `json:"threshold"`
	Changed    bool              `json:"changed"`
	Merged     int               `json:"merged"`
	Closed     int               `json:"closed"`
	Failed     int               `json:"failed"`
	Outcomes   []OutcomeResponse `json:"outcomes"`
}

// OutcomeResponse is the JSON representation of one request's evaluation.
type OutcomeResponse struct {
	Number       int     `json:"number"`
	Author       string  `json:"author"`
	State        string  `json:"state"`
	Decision     string  `json:"decision"`
	Votes        int     `json:"votes"`
	Total        float64 `json:"total"`
	Variance     float64 `json:"variance"`
	Approved     bool    `json:"approved"`
	Contested    bool    `json:"contested"`
	Window       string  `json:"window"`
	WindowLength string  `json:"window_length"`
	InWindow     bool    `json:"in_window"`
	CommitSHA    string  `json:"commit_sha,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// RecordResponse is the JSON representation of an archived vote record.
type RecordResponse struct {
	ID         string         `json:"id"`
	Repository string         `json:"repository"`
	Number     int            `json:"number"`
	HeadSHA    string         `json:"head_sha"`
	Outcome    string         `json:"outcome"`
	CommitSHA  string         `json:"commit_sha,omitempty"`
	Total      float64        `json:"total"`
	Variance   float64        `json:"variance"`
	Threshold  float64        `json:"threshold"`
	RecordedAt string         `json:"recorded_at"`
	Votes      []VoteResponse `json:"votes"`
}

// VoteResponse is the JSON representation of a single archived vote.
type VoteResponse struct {
	Voter     string  `json:"voter"`
	Direction int     `json:"direction"`
	Weight    float64 `json:"weight"`
	CastAt    string  `json:"cast_at,omitempty"`
}

// toCycleResponse converts a domain CycleResult to its JSON response representation.
func toCycleResponse(c model.CycleResult) CycleResponse {
	outcomes := make([]OutcomeResponse, 0, len(c.Outcomes))
	for _, o := range c.Outcomes {
		outcomes = append(outcomes, toOutcomeResponse(o))
	}

	return CycleResponse{
		StartedAt:  c.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: c.FinishedAt.UTC().Format(time.RFC3339),
		Threshold:  c.Threshold,
		Changed:    c.Changed,
		Merged:     c.Merged,
		Closed:     c.Closed,
		Failed:     c.Failed,
		Outcomes:   outcomes,
	}
}

func toOutcomeResponse(o model.RequestOutcome) OutcomeResponse {
	resp := OutcomeResponse{
		Number:    o.Number,
		Author:    o.Author,
		State:     string(o.State),
		Decision:  string(o.State.Decision()),
		Votes:     o.Tally.Count,
		Total:     o.Tally.Total,
		Variance:  o.Tally.Variance,
		Approved:  o.Assessment.Approved,
		Contested: o.Assessment.Contested,
		Window:    string(o.Window.Kind),
		InWindow:  o.InWindow,
		CommitSHA: o.CommitSHA,
	}
	if o.Window.Length > 0 {
		resp.WindowLength = o.Window.Length.String()
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

func toRecordResponses(records []model.VoteRecord) []RecordResponse {
	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}
	return resp
}

// toRecordResponse converts a domain VoteRecord to its JSON response representation.
func toRecordResponse(rec model.VoteRecord) RecordResponse {
	votes := make([]VoteResponse, 0, len(rec.Votes))
	for _, v := range rec.Votes {
		vr := VoteResponse{Voter: v.Voter, Direction: v.Direction, Weight: v.Weight}
		if !v.CastAt.IsZero() {
			vr.CastAt = v.CastAt.UTC().Format(time.RFC3339)
		}
		votes = append(votes, vr)
	}

	return RecordResponse{
		ID:         rec.ID,
		Repository: rec.RepoFullName,
		Number:     rec.RequestNumber,
		HeadSHA:    rec.HeadSHA,
		Outcome:    string(rec.Outcome),
		CommitSHA:  rec.CommitSHA,
		Total:      rec.Total,
		Variance:   rec.Variance,
		Threshold:  rec.Threshold,
		RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339),
		Votes:      votes,
	}
}
