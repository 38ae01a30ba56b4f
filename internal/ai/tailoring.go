package ai

import "context"

// TailoringRequest carries everything one tailoring call needs. It is built
// per call and never retained by the core.
type TailoringRequest struct {
	JobID    string
	ResumeID string

	// ResumeText and JobText are the plain-text documents; both are
	// required and never mutated.
	ResumeText string
	JobText    string

	// MatchSummary is optional free-form key/value data from a prior match
	// run, used to bias the prompt.
	MatchSummary map[string]any
}

// TailoringResult is the validated outcome of one tailoring call.
// ResumeText and CoverLetter are non-empty on success; Changes may be empty
// but is never nil.
type TailoringResult struct {
	ResumeText  string
	CoverLetter string
	Changes     []string

	// Raw keeps the unparsed model output for diagnostics and history.
	Raw string
}

// Tailor produces a tailored application package for one resume/job pair.
type Tailor interface {
	TailorApplication(ctx context.Context, req *TailoringRequest) (*TailoringResult, error)
}
