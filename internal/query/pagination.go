package query

// Meta is the page metadata returned alongside a listing.
type Meta struct {
	Page            int  `json:"page"`
	PerPage         int  `json:"perPage"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// NewMeta computes page metadata from the total matching count and the
// requested window. Pure; no side effects.
func NewMeta(totalItems, perPage, page int) Meta {
	totalPages := (totalItems + perPage - 1) / perPage

	return Meta{
		Page:            page,
		PerPage:         perPage,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
}
