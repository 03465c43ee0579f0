package core

// Notification types
const (
	NotifReportSubmitted = "report_submitted"
	NotifReportApproved  = "report_approved"
	NotifReportRejected  = "report_rejected"
	NotifRequestApproved = "request_approved"
	NotifRequestRejected = "request_rejected"
)

type (
	Notification struct {
		UserID          string `json:"user_id"`
		Type            string `json:"type"`
		Title           string `json:"title"`
		Message         string `json:"message"`
		RelatedEntityID string `json:"related_entity_id,omitempty"`
	}

	// NotificationService is any service that can deliver notifications.
	// Delivery is best-effort: callers never depend on confirmation, and a
	// failed delivery must never roll back the write that triggered it.
	NotificationService interface {
		// Send dispatches notifications concurrently
		Send(notifs ...*Notification)
	}
)

func (n *Notification) HasRecipient() bool { return n.UserID != "" }
func (n *Notification) HasContent() bool   { return n.Title != "" || n.Message != "" }
