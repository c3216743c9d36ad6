package scam

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/raushan-in/dapa/internal/ai"
)

// Tool names as offered to the dialog policy.
const (
	ToolRegisterScam = "register_scam"
	ToolSearchScam   = "search_scam"
)

const registerScamSchema = `{
	"type": "object",
	"properties": {
		"scammer_mobile": {
			"type": "string",
			"description": "Mobile number of the alleged scammer in +XX-<mobile_number> format, where +XX is the country code."
		},
		"scam_category_id": {
			"type": "integer",
			"description": "Identifier of the scam category matching the reporter's ordeal."
		},
		"reporter_ordeal": {
			"type": "string",
			"description": "Summary of the ordeal narrated by the reporter, in English, at most 50 words."
		},
		"reporter_mobile": {
			"type": "string",
			"description": "Mobile number of the reporter in +XX-<mobile_number> format. Optional when reporter_email is given."
		},
		"reporter_email": {
			"type": "string",
			"description": "Email address of the reporter. Optional when reporter_mobile is given."
		}
	},
	"required": ["scammer_mobile", "scam_category_id", "reporter_ordeal"]
}`

const searchScamSchema = `{
	"type": "object",
	"properties": {
		"mobile": {
			"type": "string",
			"description": "Mobile number of the alleged scammer in +XX-<mobile_number> format, where +XX is the country code."
		}
	},
	"required": ["mobile"]
}`

// ToolDefs lists the two operations the policy may request. The policy is
// advisory; arguments are re-validated here before anything touches the
// database.
func ToolDefs() []ai.ToolDef {
	return []ai.ToolDef{
		{
			Name:        ToolRegisterScam,
			Description: "Registers a report of a scam incident into the database. Call only after the user explicitly confirmed the exact scammer number.",
			Parameters:  json.RawMessage(registerScamSchema),
		},
		{
			Name:        ToolSearchScam,
			Description: "Searches the database for scam reports associated with the provided mobile number.",
			Parameters:  json.RawMessage(searchScamSchema),
		},
	}
}

// RegisterArgs mirrors the register_scam schema.
type RegisterArgs struct {
	ScammerMobile  string `json:"scammer_mobile"`
	ScamCategoryID int    `json:"scam_category_id"`
	ReporterOrdeal string `json:"reporter_ordeal"`
	ReporterMobile string `json:"reporter_mobile"`
	ReporterEmail  string `json:"reporter_email"`
}

// SearchArgs mirrors the search_scam schema.
type SearchArgs struct {
	Mobile string `json:"mobile"`
}

// ValidateRegister runs every field validator plus the at-least-one
// reporter identity invariant and returns the normalized report shape.
// Pure; nothing is persisted on failure.
func ValidateRegister(args RegisterArgs) (*PendingReport, error) {
	scammer, err := NormalizeMobile("scammer_mobile", args.ScammerMobile)
	if err != nil {
		return nil, err
	}

	if _, err := ValidateCategory(args.ScamCategoryID); err != nil {
		return nil, err
	}

	ordeal, err := ValidateOrdeal(args.ReporterOrdeal)
	if err != nil {
		return nil, err
	}
	if ordeal == "" {
		return nil, &FieldError{
			Field:  "reporter_ordeal",
			Code:   CodeInvalidFormat,
			Reason: "ordeal summary is required",
		}
	}

	var reporterMobile, reporterEmail string
	if strings.TrimSpace(args.ReporterMobile) != "" {
		reporterMobile, err = NormalizeMobile("reporter_mobile", args.ReporterMobile)
		if err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(args.ReporterEmail) != "" {
		if !IsEmail(args.ReporterEmail) {
			return nil, &FieldError{
				Field:  "reporter_email",
				Code:   CodeInvalidFormat,
				Reason: fmt.Sprintf("invalid email address %q", args.ReporterEmail),
			}
		}
		reporterEmail = strings.TrimSpace(args.ReporterEmail)
	}

	if reporterMobile == "" && reporterEmail == "" {
		return nil, &FieldError{
			Field:  "reporter_identity",
			Code:   CodeMissingIdentity,
			Reason: "at least one of reporter_mobile or reporter_email must be provided",
		}
	}

	return &PendingReport{
		ScammerMobile:  scammer,
		ScamCategoryID: args.ScamCategoryID,
		ReporterOrdeal: ordeal,
		ReporterMobile: reporterMobile,
		ReporterEmail:  reporterEmail,
	}, nil
}

// Tools is the authoritative tool layer over the persistence port.
type Tools struct {
	repo Repo
}

func NewTools(repo Repo) *Tools {
	return &Tools{repo: repo}
}

// Register persists one validated report. Persistence failures are
// logged in full and reduced to a user-safe message; they never escape
// the turn.
func (t *Tools) Register(ctx context.Context, p *PendingReport) string {
	rep := &Report{
		ScammerMobile:  p.ScammerMobile,
		ScamCategoryID: p.ScamCategoryID,
		ReporterOrdeal: p.ReporterOrdeal,
	}
	if p.ReporterMobile != "" {
		m := p.ReporterMobile
		rep.ReporterMobile = &m
	}
	if p.ReporterEmail != "" {
		e := p.ReporterEmail
		rep.ReporterEmail = &e
	}

	id, err := t.repo.Insert(ctx, rep)
	if err != nil {
		log.Printf("[tools] register insert error for %s: %v", p.ScammerMobile, err)
		return fmt.Sprintf("An error occurred in registering a report for %s.", p.ScammerMobile)
	}

	log.Printf("[tools] registered report id=%d scammer=%s category=%d", id, p.ScammerMobile, p.ScamCategoryID)
	return fmt.Sprintf("A report has been registered for %s.", p.ScammerMobile)
}

// Search is read-only and safe to repeat. Zero matches is a valid
// result, not an error.
func (t *Tools) Search(ctx context.Context, rawMobile string) (string, error) {
	mobile, err := NormalizeMobile("mobile", rawMobile)
	if err != nil {
		return "", err
	}

	reports, err := t.repo.FindByMobile(ctx, mobile)
	if err != nil {
		log.Printf("[tools] search query error for %s: %v", mobile, err)
		return fmt.Sprintf("An error occurred while searching scam for %s.", mobile), nil
	}

	if len(reports) == 0 {
		return fmt.Sprintf("No scam reports found for %s.", mobile), nil
	}

	seen := make(map[int]bool)
	var names []string
	for _, r := range reports {
		if seen[r.ScamCategoryID] {
			continue
		}
		seen[r.ScamCategoryID] = true
		if c, ok := Categories[r.ScamCategoryID]; ok {
			names = append(names, c.Name)
		}
	}

	return fmt.Sprintf(
		"%s has been reported %d time(s). Reported categories: %s.",
		mobile, len(reports), strings.Join(names, ", "),
	), nil
}
