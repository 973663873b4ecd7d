package handler

import (
	"time"

	"laurel/internal/expiry/models"
)

// RenewalResponse is the wire shape of one renewal request.
type RenewalResponse struct {
	RenewalID         string     `json:"renewal_id"`
	CertificateID     string     `json:"certificate_id"`
	RequesterID       string     `json:"requester_id"`
	PreviousExpiresAt time.Time  `json:"previous_expires_at"`
	NewExpiresAt      time.Time  `json:"new_expires_at"`
	Status            string     `json:"status"`
	ApprovalRequestID string     `json:"approval_request_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	AppliedAt         *time.Time `json:"applied_at,omitempty"`
}

func toRenewalResponse(renewal *models.RenewalRequest) *RenewalResponse {
	resp := &RenewalResponse{
		RenewalID:         renewal.ID.String(),
		CertificateID:     renewal.CertificateID.String(),
		RequesterID:       renewal.RequesterID.String(),
		PreviousExpiresAt: renewal.PreviousExpiresAt,
		NewExpiresAt:      renewal.NewExpiresAt,
		Status:            string(renewal.Status),
		CreatedAt:         renewal.CreatedAt,
		AppliedAt:         renewal.AppliedAt,
	}
	if renewal.ApprovalRequestID != nil {
		resp.ApprovalRequestID = renewal.ApprovalRequestID.String()
	}
	return resp
}

// RenewalListResponse is a certificate's renewal history, oldest first.
type RenewalListResponse struct {
	CertificateID string            `json:"certificate_id"`
	Renewals      []RenewalResponse `json:"renewals"`
	Count         int               `json:"count"`
}

func toRenewalListResponse(certificateID string, renewals []*models.RenewalRequest) *RenewalListResponse {
	out := make([]RenewalResponse, 0, len(renewals))
	for _, renewal := range renewals {
		out = append(out, *toRenewalResponse(renewal))
	}
	return &RenewalListResponse{CertificateID: certificateID, Renewals: out, Count: len(out)}
}

// NotificationResponse is the certificate's expiry notice.
type NotificationResponse struct {
	NotificationID string     `json:"notification_id"`
	CertificateID  string     `json:"certificate_id"`
	StudentID      string     `json:"student_id"`
	NoticeAt       time.Time  `json:"notice_at"`
	Delivered      bool       `json:"delivered"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

func toNotificationResponse(notification *models.ExpiryNotification) *NotificationResponse {
	return &NotificationResponse{
		NotificationID: notification.ID.String(),
		CertificateID:  notification.CertificateID.String(),
		StudentID:      notification.StudentID.String(),
		NoticeAt:       notification.NoticeAt,
		Delivered:      notification.Delivered,
		DeliveredAt:    notification.DeliveredAt,
	}
}

// DeliveryResponse reports whether this call delivered the notice. False
// means it had already been delivered.
type DeliveryResponse struct {
	Delivered bool `json:"delivered"`
}

// SweepResponse reports one expiry sweep. More signals that due
// certificates remain beyond this page.
type SweepResponse struct {
	BatchSize int  `json:"batch_size"`
	Expired   int  `json:"expired"`
	Skipped   int  `json:"skipped"`
	NotDue    int  `json:"not_due"`
	Missing   int  `json:"missing"`
	More      bool `json:"more,omitempty"`
}

func toSweepResponse(result *models.SweepResult, more bool) *SweepResponse {
	return &SweepResponse{
		BatchSize: result.BatchSize,
		Expired:   result.Expired,
		Skipped:   result.Skipped,
		NotDue:    result.NotDue,
		Missing:   result.Missing,
		More:      more,
	}
}
