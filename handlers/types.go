// SPDX-License-Identifier: GPL-3.0-only

package handlers

import "docgate-server/quota"

// swagger:model SignupRequest
type SignupRequest struct {
	// User's email address
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model AuthResponse
type AuthResponse struct {
	// Short-lived access token for the Authorization header
	AccessToken string `json:"access_token" example:"sample_access_token"`
	// Long-lived refresh token, redeemable exactly once
	RefreshToken string `json:"refresh_token" example:"sample_refresh_token"`
	// Email of the authenticated account
	Email string `json:"email" example:"user@example.com"`
	// Plan assigned to the account
	Plan string `json:"plan" example:"FREE"`
	// Message indicating successful operation
	Message string `json:"message" example:"Operation successful"`
}

// swagger:model RefreshRequest
type RefreshRequest struct {
	// Refresh token obtained from login or a previous refresh
	// required: true
	RefreshToken string `json:"refresh_token" example:"sample_refresh_token"`
}

// swagger:model LogoutRequest
type LogoutRequest struct {
	// Refresh token to revoke
	RefreshToken string `json:"refresh_token" example:"sample_refresh_token"`
}

// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	// Email address of the account
	// required: true
	Email string `json:"email" example:"user@example.com"`
}

// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	// Password reset token from the email link
	// required: true
	Token string `json:"token" example:"prt_a1b2c3d4e5f6789"`
	// New password
	// required: true
	NewPassword string `json:"new_password" example:"MyNewPassword@456"`
}

// swagger:model VerifyEmailRequest
type VerifyEmailRequest struct {
	// Email verification token
	// required: true
	Token string `json:"token" example:"evt_a1b2c3d4e5f6789"`
}

// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// Current password
	// required: true
	CurrentPassword string `json:"current_password" example:"MySecretPassword@123"`
	// New password
	// required: true
	NewPassword string `json:"new_password" example:"MyNewPassword@456"`
}

// swagger:model DeleteAccountRequest
type DeleteAccountRequest struct {
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message indicating the result of the operation
	Message string `json:"message"`
}

// swagger:model CreateAPIKeyRequest
type CreateAPIKeyRequest struct {
	// Name of the API key
	Name string `json:"name" example:"My API Key"`
	// Key type: live or test. Test keys bypass quota but require sandbox
	// keys to be enabled.
	Type string `json:"type" example:"live"`
	// Expiration date for the API key (optional, RFC 3339)
	ExpiresAt *string `json:"expires_at" example:"2027-12-31T00:00:00Z"`
	// Comma-separated domain allowlist (optional)
	AllowedDomains *string `json:"allowed_domains" example:"app.example.com,admin.example.com"`
}

// swagger:model CreateAPIKeyResponse
type CreateAPIKeyResponse struct {
	// The raw API key. Returned exactly once, never retrievable again.
	APIKey string `json:"api_key" example:"dg_live_9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
	// UUID-shaped identifier for this key
	KeyID string `json:"key_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	// Masked display form of the key
	MaskedKey string `json:"masked_key" example:"dg_live_********a08"`
	// Name of the API key
	Name string `json:"name" example:"My API Key"`
	// Key type
	Type string `json:"type" example:"live"`
	// Timestamp of when the API key was created
	CreatedAt string `json:"created_at" example:"2026-09-01T12:00:00Z"`
	// Expiration date for the API key
	ExpiresAt *string `json:"expires_at" example:"2027-12-31T00:00:00Z"`
	// Storage warning shown once alongside the raw key
	Warning string `json:"warning" example:"Store this key securely. It will not be shown again."`
	// Message indicating successful creation
	Message string `json:"message" example:"API key created successfully"`
}

// swagger:model APIKeyDetails
type APIKeyDetails struct {
	// UUID-shaped identifier for this key
	KeyID string `json:"key_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	// Masked display form of the key
	MaskedKey string `json:"masked_key" example:"dg_live_********a08"`
	// Name of the API key
	Name string `json:"name" example:"My API Key"`
	// Key type
	Type string `json:"type" example:"live"`
	// Whether the key is active
	IsActive bool `json:"is_active" example:"true"`
	// Whether the key has been revoked
	Revoked bool `json:"revoked" example:"false"`
	// Timestamp of when the API key was created
	CreatedAt string `json:"created_at" example:"2026-09-01T12:00:00Z"`
	// Last used timestamp of the API key
	LastUsedAt *string `json:"last_used_at" example:"2026-09-01T12:00:00Z"`
	// Expiration date for the API key
	ExpiresAt *string `json:"expires_at" example:"2027-12-31T00:00:00Z"`
}

// swagger:model APIKeyListResponse
type APIKeyListResponse struct {
	// List of API keys
	Data []APIKeyDetails `json:"data"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"API keys retrieved successfully"`
}

// swagger:model QuotaStatusResponse
type QuotaStatusResponse struct {
	// Plan name
	Plan string `json:"plan" example:"FREE"`
	// Current quota figures
	Quota quota.QuotaInfo `json:"quota"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Quota status retrieved successfully"`
}

// swagger:model ConvertResponse
type ConvertResponse struct {
	// Number of pages in the converted document
	Pages int `json:"pages" example:"12"`
	// Size of the converted output in bytes
	SizeBytes int64 `json:"size_bytes" example:"482133"`
	// Remaining daily requests after this conversion (null when unlimited)
	RemainingDaily *int64 `json:"remaining_daily" example:"99"`
	// Remaining monthly requests after this conversion (null when unlimited)
	RemainingMonthly *int64 `json:"remaining_monthly"`
	// Message indicating successful conversion
	Message string `json:"message" example:"Document converted successfully"`
}

// swagger:model GetUserResponse
type GetUserResponse struct {
	// Email address of the account
	Email string `json:"email" example:"user@example.com"`
	// Account role
	Role string `json:"role" example:"user"`
	// Whether the user's email is verified
	IsEmailVerified bool `json:"is_email_verified" example:"true"`
	// Plan assigned to the account
	Plan string `json:"plan" example:"FREE"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"User retrieved successfully"`
}

// swagger:model PlanDetails
type PlanDetails struct {
	// Plan ID
	ID uint `json:"id" example:"1"`
	// Plan name
	Name string `json:"name" example:"FREE"`
	// Plan price in cents
	Price uint `json:"price" example:"0"`
	// Currency for the plan price
	Currency string `json:"currency" example:"USD"`
	// Daily request limit (null means unlimited)
	DailyRequestLimit *int64 `json:"daily_request_limit" example:"100"`
	// Monthly request limit (null means unlimited)
	MonthlyRequestLimit *int64 `json:"monthly_request_limit" example:"1000"`
	// Maximum upload size in megabytes
	MaxFileSizeMB int64 `json:"max_file_size_mb" example:"10"`
	// Maximum pages per PDF (null means unlimited)
	MaxPagesPerPDF *int64 `json:"max_pages_per_pdf" example:"50"`
	// Maximum concurrent conversion jobs
	MaxConcurrentJobs int `json:"max_concurrent_jobs" example:"1"`
	// Whether webhook notifications are available
	WebhooksEnabled bool `json:"webhooks_enabled" example:"false"`
	// Whether sandbox (test) keys can be created
	SandboxKeysEnabled bool `json:"sandbox_keys_enabled" example:"true"`
}

// swagger:model GetPlansResponse
type GetPlansResponse struct {
	// List of available plans
	Plans []PlanDetails `json:"plans"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Plans retrieved successfully"`
}
