package scam

import (
	"time"

	"github.com/raushan-in/dapa/internal/ai"
)

// Responder identifies who produced the outgoing message.
type Responder string

const (
	ResponderHuman Responder = "human"
	ResponderAI    Responder = "ai"
	ResponderTool  Responder = "tool"
)

// Report is one immutable scam fact. Corrections are new reports, never
// updates; the core never deletes.
type Report struct {
	ID             int64
	ScammerMobile  string // normalized +XX-<digits>
	ScamCategoryID int
	ReporterOrdeal string
	ReporterMobile *string
	ReporterEmail  *string
	CreatedAt      time.Time
}

// TurnRequest is one inbound chat message from the transport collaborator.
type TurnRequest struct {
	UserMessage      string
	ThreadID         string // empty starts a new thread
	ReporterIdentity string // email or mobile, may be empty
}

// TurnResponse closes one turn.
type TurnResponse struct {
	ResponseMessage string
	Responder       Responder
	ThreadID        string
}

// PendingReport parks a policy-requested registration until the user
// explicitly confirms the exact scammer number.
type PendingReport struct {
	ScammerMobile  string `json:"scammer_mobile"`
	ScamCategoryID int    `json:"scam_category_id"`
	ReporterOrdeal string `json:"reporter_ordeal"`
	ReporterMobile string `json:"reporter_mobile,omitempty"`
	ReporterEmail  string `json:"reporter_email,omitempty"`
}

// Context is the per-thread dialog state kept in the session store.
type Context struct {
	Messages []ai.Message   `json:"messages"`
	Pending  *PendingReport `json:"pending,omitempty"`
}
