package dto

// CreateEventRequest contains fields submitted when creating an event. Dates
// arrive as RFC3339 or YYYY-MM-DD strings and are parsed by the handler.
type CreateEventRequest struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Status      string `form:"status" json:"status"`
	StartDate   string `form:"startDate" json:"startDate"`
	EndDate     string `form:"endDate" json:"endDate"`
	IsPublished bool   `form:"isPublished" json:"isPublished"`
	IsFeatured  bool   `form:"isFeatured" json:"isFeatured"`
}

// UpdateEventRequest contains a partial event update.
type UpdateEventRequest struct {
	Title            *string `form:"title" json:"title"`
	Description      *string `form:"description" json:"description"`
	Status           *string `form:"status" json:"status"`
	StartDate        *string `form:"startDate" json:"startDate"`
	EndDate          *string `form:"endDate" json:"endDate"`
	IsPublished      *bool   `form:"isPublished" json:"isPublished"`
	IsFeatured       *bool   `form:"isFeatured" json:"isFeatured"`
	RemoveAttachment bool    `form:"removeAttachment" json:"removeAttachment"`
}

// CreateAnnouncementRequest contains fields submitted when creating an
// announcement. An empty endDate means the announcement never expires.
type CreateAnnouncementRequest struct {
	Title       string `form:"title" json:"title"`
	Body        string `form:"body" json:"body"`
	Category    string `form:"category" json:"category"`
	StartDate   string `form:"startDate" json:"startDate"`
	EndDate     string `form:"endDate" json:"endDate"`
	IsPublished bool   `form:"isPublished" json:"isPublished"`
	IsPinned    bool   `form:"isPinned" json:"isPinned"`
}

// UpdateAnnouncementRequest contains a partial announcement update.
type UpdateAnnouncementRequest struct {
	Title            *string `form:"title" json:"title"`
	Body             *string `form:"body" json:"body"`
	Category         *string `form:"category" json:"category"`
	StartDate        *string `form:"startDate" json:"startDate"`
	EndDate          *string `form:"endDate" json:"endDate"`
	ClearEndDate     bool    `form:"clearEndDate" json:"clearEndDate"`
	IsPublished      *bool   `form:"isPublished" json:"isPublished"`
	IsPinned         *bool   `form:"isPinned" json:"isPinned"`
	RemoveAttachment bool    `form:"removeAttachment" json:"removeAttachment"`
}

// CreateClassGroupRequest contains fields submitted when creating a class
// group.
type CreateClassGroupRequest struct {
	Name           string `form:"name" json:"name"`
	Description    string `form:"description" json:"description"`
	GraduationYear int    `form:"graduationYear" json:"graduationYear"`
	IsPublic       bool   `form:"isPublic" json:"isPublic"`
}

// UpdateClassGroupRequest contains a partial class group update.
type UpdateClassGroupRequest struct {
	Name             *string `form:"name" json:"name"`
	Description      *string `form:"description" json:"description"`
	GraduationYear   *int    `form:"graduationYear" json:"graduationYear"`
	IsPublic         *bool   `form:"isPublic" json:"isPublic"`
	RemoveAttachment bool    `form:"removeAttachment" json:"removeAttachment"`
}

// ToggleRequest names the boolean flag a toggle request flips.
type ToggleRequest struct {
	Flag string `form:"flag" json:"flag"`
}

// AttachmentDownloadResponse enriches attachment metadata with a temporary
// download URL.
type AttachmentDownloadResponse struct {
	AttachmentID string `json:"attachmentId"`
	DownloadURL  string `json:"downloadUrl"`
}
