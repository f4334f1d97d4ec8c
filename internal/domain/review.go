package domain

import "time"

type Review struct {
	ID             int64
	VPNSlug        string
	AuthorName     string
	AuthorEmail    string // never rendered publicly
	Rating         int
	Title          string
	Content        string
	UsageType      *string
	UsagePeriod    *string
	Pros           []string
	Cons           []string
	Approved       bool
	Featured       bool
	RejectedAt     *time.Time
	HelpfulCount   int64
	UnhelpfulCount int64
	CreatedAt      time.Time
}

// ReviewDraft is what a visitor submits; everything else is server-assigned.
type ReviewDraft struct {
	VPNSlug     string
	AuthorName  string
	AuthorEmail string
	Rating      int
	Title       string
	Content     string
	UsageType   *string
	UsagePeriod *string
	Pros        []string
	Cons        []string
}

type VoteKind string

const (
	VoteHelpful   VoteKind = "helpful"
	VoteUnhelpful VoteKind = "unhelpful"
)

func (k VoteKind) Valid() bool {
	return k == VoteHelpful || k == VoteUnhelpful
}

// ReviewView is the public projection of a review; author email is stripped.
type ReviewView struct {
	ID             int64     `json:"id"`
	VPNSlug        string    `json:"vpnSlug"`
	AuthorName     string    `json:"authorName"`
	Rating         int       `json:"rating"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	UsageType      *string   `json:"usageType,omitempty"`
	UsagePeriod    *string   `json:"usagePeriod,omitempty"`
	Pros           []string  `json:"pros"`
	Cons           []string  `json:"cons"`
	Featured       bool      `json:"featured"`
	HelpfulCount   int64     `json:"helpfulCount"`
	UnhelpfulCount int64     `json:"unhelpfulCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (r Review) View() ReviewView {
	return ReviewView{
		ID:             r.ID,
		VPNSlug:        r.VPNSlug,
		AuthorName:     r.AuthorName,
		Rating:         r.Rating,
		Title:          r.Title,
		Content:        r.Content,
		UsageType:      r.UsageType,
		UsagePeriod:    r.UsagePeriod,
		Pros:           r.Pros,
		Cons:           r.Cons,
		Featured:       r.Featured,
		HelpfulCount:   r.HelpfulCount,
		UnhelpfulCount: r.UnhelpfulCount,
		CreatedAt:      r.CreatedAt,
	}
}
