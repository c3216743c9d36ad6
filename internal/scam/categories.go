package scam

import (
	"fmt"
	"sort"
	"strings"
)

// Category is one entry of the fixed scam taxonomy.
type Category struct {
	Name        string
	Description string
}

// Categories is the closed catalog of scam types. It is reference data:
// never extended at runtime, used both to instruct the dialog policy and
// to validate tool arguments.
var Categories = map[int]Category{
	1: {
		Name:        "Fake Authority Call",
		Description: "Scammers impersonating law enforcement officials (e.g., CBI, customs, police) or service agents, coercing victims into making payments or money.",
	},
	2: {
		Name:        "UPI Scam",
		Description: "Scammers claim accidental UPI payments and request refunds, or attempt scams related to UPI, PhonePe, Google Pay, or any quick payment interface.",
	},
	3: {
		Name:        "OTP Scam",
		Description: "Scammers request OTPs to gain unauthorized access to bank account.",
	},
	4: {
		Name:        "Fake Buyer/Seller Scam",
		Description: "Scammers pose as buyers requesting refunds or as fraudulent sellers asking for advance payments.",
	},
	5: {
		Name:        "Phishing or Link Scam",
		Description: "Fraudulent SMS or calls designed to gain unauthorized access to banking platforms by sending malicious links or asking for sensitive details.",
	},
	6: {
		Name:        "Video Call Scam",
		Description: "Blackmail involving compromising video calls, or screenshots, used to demand money.",
	},
	7: {
		Name:        "Fake Bank Staff Scam",
		Description: "Calls from scammers posing as bank officials, requesting sensitive banking details.",
	},
	8: {
		Name:        "Fake Job Scam",
		Description: "Scammers posing as recruiters, demanding service or registration fees for fake job offers.",
	},
	9: {
		Name:        "Lottery Scam",
		Description: "Messages claiming lottery wins, lucky draws, or prizes, and requesting fees for processing.",
	},
	10: {
		Name:        "Fake Identity Scam",
		Description: "Scammers imitate known individuals and request money transfers.",
	},
}

// CategoriesPrompt renders the catalog for the instruction prompt,
// ordered by id.
func CategoriesPrompt() string {
	ids := make([]int, 0, len(Categories))
	for id := range Categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		c := Categories[id]
		fmt.Fprintf(&b, "%d: %s-%s\n", id, c.Name, c.Description)
	}
	return b.String()
}
