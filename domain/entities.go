package domain

// DiscountRate is a page-count discount tier offered by a provider.
type DiscountRate struct {
	MinPages int     `json:"minPages"`
	MaxPages int     `json:"maxPages"`
	Discount float64 `json:"discount"`
}

// Review is a rating left on a provider by a student.
type Review struct {
	ID      string  `json:"id"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// User represents an account on the UploadDoc backend. Provider-only
// attributes are pointers so absent fields survive a JSON round trip
// without being flattened to zero values.
type User struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	MatricNumber      string         `json:"matricNumber,omitempty"`
	IsAdmin           bool           `json:"isAdmin"`
	SuperAdmin        bool           `json:"superAdmin"`
	IsVerified        bool           `json:"isVerified"`
	DocumentToken     string         `json:"documentToken,omitempty"`
	DocumentsReceived int            `json:"documentsReceived,omitempty"`
	OpeningHours      *string        `json:"openingHours,omitempty"`
	PrintingCost      *string        `json:"printingCost,omitempty"`
	PrintingLocation  *string        `json:"printingLocation,omitempty"`
	DiscountRates     []DiscountRate `json:"discountRates,omitempty"`
	SupportContact    *string        `json:"supportContact,omitempty"`
	AdditionalInfo    *string        `json:"additionalInfo,omitempty"`
	Rating            float64        `json:"rating,omitempty"`
	Reviews           []Review       `json:"reviews,omitempty"`
	AdminStatus       string         `json:"adminStatus,omitempty"`
	QueueTimeEstimate int            `json:"queueTimeEstimate,omitempty"`
}

// IsProvider reports whether the user may act as a printing provider.
// A superAdmin is always admin-capable.
func (u *User) IsProvider() bool {
	return u.IsAdmin || u.SuperAdmin
}

// Credentials is the envelope returned by every backend endpoint that
// establishes or refreshes a session.
type Credentials struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the registration profile.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MatricNumber string `json:"matricNumber"`
	Password     string `json:"password"`
}

// RegisterAck acknowledges a registration that now awaits email
// verification. No session exists until the code is confirmed.
type RegisterAck struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	CanResend bool   `json:"canResend"`
}

// VerifyEmailRequest carries an email verification code.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResendAck acknowledges a verification-code resend.
type ResendAck struct {
	Message   string `json:"message"`
	CanResend bool   `json:"canResend"`
}

// PasswordResetAck acknowledges forgot-password and reset-password calls.
type PasswordResetAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpdateProfileRequest carries the provider attributes a user may edit.
// Nil fields are omitted from the request and left unchanged server-side.
type UpdateProfileRequest struct {
	OpeningHours     *string        `json:"openingHours,omitempty"`
	PrintingCost     *string        `json:"printingCost,omitempty"`
	PrintingLocation *string        `json:"printingLocation,omitempty"`
	DiscountRates    []DiscountRate `json:"discountRates,omitempty"`
	SupportContact   *string        `json:"supportContact,omitempty"`
	AdditionalInfo   *string        `json:"additionalInfo,omitempty"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	TotalItems int  `json:"totalItems"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// ProviderPage is one page of the provider directory.
type ProviderPage struct {
	Admins     []User     `json:"admins"`
	Pagination Pagination `json:"pagination"`
}

// Project is a print job uploaded by a student and assigned to a provider.
type Project struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	FileName      string `json:"fileName"`
	FileURL       string `json:"fileUrl,omitempty"`
	Pages         int    `json:"pages"`
	Status        string `json:"status"`
	StudentID     string `json:"studentId"`
	AssignedAdmin string `json:"assignedAdmin,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Projects   []Project  `json:"projects"`
	Pagination Pagination `json:"pagination"`
}

// ProjectUpload describes a document to upload for printing. Content is
// sent as a multipart part named "document".
type ProjectUpload struct {
	Title    string
	FileName string
	AdminID  string
	Copies   int
	Content  []byte
}

// SessionState is the published snapshot of the session. Subscribers
// receive copies and cannot mutate manager state through them.
type SessionState struct {
	User          *User
	Token         string
	Authenticated bool
	Loading       bool
	LastError     string
}
