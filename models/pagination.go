package models

// PaginatedEmails represents a paginated list of emails
type PaginatedEmails struct {
	Emails      []Email `json:"emails"`
	Page        int     `json:"page"`
	PageSize    int     `json:"pageSize"`
	TotalPages  int     `json:"totalPages"`
	TotalEmails int     `json:"totalEmails"`
	HasNext     bool    `json:"hasNext"`
	HasPrev     bool    `json:"hasPrev"`
}

// NewPaginatedEmails creates a new paginated emails response
func NewPaginatedEmails(emails []Email, page, pageSize, totalEmails int) *PaginatedEmails {
	totalPages := (totalEmails + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if emails == nil {
		emails = []Email{}
	}

	return &PaginatedEmails{
		Emails:      emails,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalEmails: totalEmails,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
