// Package e2e runs the full client stack (gateway, storage adapter,
// session manager) against an in-process fake of the UploadDoc backend.
package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/uploaddoc/domain"
)

const verifyMaxAttempts = 3

type backendUser struct {
	user domain.User
	hash []byte
}

type pendingRegistration struct {
	req      domain.RegisterRequest
	otp      string
	attempts int
}

// FakeBackend is an in-memory stand-in for the UploadDoc REST API. It
// issues real HS256 tokens and hashes passwords with bcrypt so the
// client cannot tell it from the production backend.
type FakeBackend struct {
	Server *httptest.Server
	secret []byte

	mu        sync.Mutex
	nextID    int
	users     map[string]*backendUser         // by email
	pending   map[string]*pendingRegistration // by email
	resetOTPs map[string]string               // by email
	projects  map[string]*domain.Project      // by project ID
}

// NewFakeBackend starts the fake backend on an httptest server. The
// server is shut down via t.Cleanup by callers or Close.
func NewFakeBackend() *FakeBackend {
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		secret:    []byte("e2e-secret"),
		users:     map[string]*backendUser{},
		pending:   map[string]*pendingRegistration{},
		resetOTPs: map[string]string{},
		projects:  map[string]*domain.Project{},
	}

	router := gin.New()
	auth := router.Group("/api/auth")
	auth.POST("/register", b.handleRegister)
	auth.POST("/verify-email", b.handleVerifyEmail)
	auth.POST("/resend-verification", b.handleResendVerification)
	auth.POST("/login", b.handleLogin)
	auth.GET("/status", b.handleStatus)
	auth.POST("/forgot-password", b.handleForgotPassword)
	auth.POST("/reset-password", b.handleResetPassword)

	users := router.Group("/api/users")
	users.PUT("/update-profile", b.handleUpdateProfile)
	users.GET("/admins", b.handleProviders)

	projects := router.Group("/api/projects")
	projects.POST("/upload", b.handleUpload)
	projects.GET("/student/:id", b.handleStudentProjects)

	b.Server = httptest.NewServer(router)
	return b
}

// Close shuts the fake backend down.
func (b *FakeBackend) Close() { b.Server.Close() }

// URL returns the backend base URL.
func (b *FakeBackend) URL() string { return b.Server.URL }

// OTPFor returns the pending verification code for an email, standing
// in for reading the verification email.
func (b *FakeBackend) OTPFor(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pending[email]; ok {
		return p.otp
	}
	return ""
}

// ResetOTPFor returns the pending password-reset code for an email.
func (b *FakeBackend) ResetOTPFor(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resetOTPs[email]
}

// SeedProvider registers a verified provider account directly.
func (b *FakeBackend) SeedProvider(name, email, password string) domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	b.nextID++
	user := domain.User{
		ID:         fmt.Sprintf("u%d", b.nextID),
		Name:       name,
		Email:      email,
		IsAdmin:    true,
		IsVerified: true,
	}
	b.users[email] = &backendUser{user: user, hash: hash}
	return user
}

func (b *FakeBackend) mintToken(userID string) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	return token
}

// authenticate resolves the bearer token to a user. Must be called with
// the lock held.
func (b *FakeBackend) authenticate(c *gin.Context) *backendUser {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, _ := claims["sub"].(string)
	for _, u := range b.users {
		if u.user.ID == sub {
			return u
		}
	}
	return nil
}

func (b *FakeBackend) handleRegister(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	b.pending[req.Email] = &pendingRegistration{
		req: req,
		otp: fmt.Sprintf("%06d", 100000+len(b.pending)),
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Check your email for a verification code",
		"email":     req.Email,
		"canResend": true,
	})
}

func (b *FakeBackend) handleVerifyEmail(c *gin.Context) {
	var req domain.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pending, ok := b.pending[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"message":           "No pending registration for this email",
			"needsRegistration": true,
		})
		return
	}

	if req.OTP != pending.otp {
		pending.attempts++
		remaining := verifyMaxAttempts - pending.attempts
		if remaining <= 0 {
			delete(b.pending, req.Email)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"message":           "Too many attempts, please register again",
				"needsRegistration": true,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"message":           "Invalid verification code",
			"attemptsRemaining": remaining,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pending.req.Password), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create account"})
		return
	}

	b.nextID++
	user := domain.User{
		ID:           fmt.Sprintf("u%d", b.nextID),
		Name:         pending.req.Name,
		Email:        pending.req.Email,
		MatricNumber: pending.req.MatricNumber,
		IsVerified:   true,
	}
	b.users[user.Email] = &backendUser{user: user, hash: hash}
	delete(b.pending, req.Email)

	c.JSON(http.StatusOK, gin.H{
		"token":   b.mintToken(user.ID),
		"user":    user,
		"message": "Email verified",
	})
}

func (b *FakeBackend) handleResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pending, ok := b.pending[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"message":           "No pending registration for this email",
			"needsRegistration": true,
		})
		return
	}

	pending.otp = fmt.Sprintf("%06d", 200000+len(b.pending))
	pending.attempts = 0
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent", "canResend": false})
}

func (b *FakeBackend) handleLogin(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, pending := b.pending[req.Email]; pending {
		c.JSON(http.StatusForbidden, gin.H{
			"message":           "Please verify your email",
			"needsVerification": true,
			"canResend":         true,
			"email":             req.Email,
		})
		return
	}

	account, ok := b.users[req.Email]
	if !ok || bcrypt.CompareHashAndPassword(account.hash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": b.mintToken(account.user.ID),
		"user":  account.user,
	})
}

func (b *FakeBackend) handleStatus(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := b.authenticate(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": account.user})
}

func (b *FakeBackend) handleForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Respond identically whether or not the account exists.
	if _, ok := b.users[req.Email]; ok {
		b.resetOTPs[req.Email] = fmt.Sprintf("%06d", 300000+len(b.resetOTPs))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reset code sent if the account exists"})
}

func (b *FakeBackend) handleResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	otp, ok := b.resetOTPs[req.Email]
	if !ok || otp != req.OTP {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid reset code"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update password"})
		return
	}
	b.users[req.Email].hash = hash
	delete(b.resetOTPs, req.Email)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

func (b *FakeBackend) handleUpdateProfile(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	account := b.authenticate(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	if req.OpeningHours != nil {
		account.user.OpeningHours = req.OpeningHours
	}
	if req.PrintingCost != nil {
		account.user.PrintingCost = req.PrintingCost
	}
	if req.PrintingLocation != nil {
		account.user.PrintingLocation = req.PrintingLocation
	}
	if req.DiscountRates != nil {
		account.user.DiscountRates = req.DiscountRates
	}
	if req.SupportContact != nil {
		account.user.SupportContact = req.SupportContact
	}
	if req.AdditionalInfo != nil {
		account.user.AdditionalInfo = req.AdditionalInfo
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": account.user})
}

func (b *FakeBackend) handleProviders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	search := strings.ToLower(c.Query("search"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var admins []domain.User
	for _, u := range b.users {
		if !u.user.IsProvider() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.user.Name), search) {
			continue
		}
		admins = append(admins, u.user)
	}

	total := len(admins)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, domain.ProviderPage{
		Admins: admins[start:end],
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			TotalItems: total,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

func (b *FakeBackend) handleUpload(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := b.authenticate(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing document"})
		return
	}

	b.nextID++
	project := &domain.Project{
		ID:            fmt.Sprintf("proj%d", b.nextID),
		Title:         c.PostForm("title"),
		FileName:      file.Filename,
		Status:        "pending",
		StudentID:     account.user.ID,
		AssignedAdmin: c.PostForm("adminId"),
	}
	b.projects[project.ID] = project

	c.JSON(http.StatusCreated, gin.H{"message": "Document uploaded", "project": project})
}

func (b *FakeBackend) handleStudentProjects(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.authenticate(c) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	studentID := c.Param("id")
	var projects []domain.Project
	for _, p := range b.projects {
		if p.StudentID == studentID {
			projects = append(projects, *p)
		}
	}

	c.JSON(http.StatusOK, domain.ProjectPage{
		Projects: projects,
		Pagination: domain.Pagination{
			Page: 1, Limit: len(projects) + 1, TotalPages: 1, TotalItems: len(projects),
		},
	})
}
