package models

// ContentKind discriminates the three publishable entity kinds.
type ContentKind string

const (
	KindEvent        ContentKind = "event"
	KindAnnouncement ContentKind = "announcement"
	KindClassGroup   ContentKind = "class_group"
)

// Valid reports whether the kind is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindEvent, KindAnnouncement, KindClassGroup:
		return true
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives page metadata from the full matching count.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: totalPages}
}
