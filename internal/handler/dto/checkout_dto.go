package dto

type CreateCheckoutSessionRequest struct {
	LookupKey string `form:"lookup_key" binding:"required"`
	// ClientReferenceID carries the device fingerprint through the hosted
	// checkout so the webhook can recover it.
	ClientReferenceID string `form:"client_reference_id"`
}

type CreatePortalSessionRequest struct {
	SessionID string `form:"session_id" binding:"required"`
}
