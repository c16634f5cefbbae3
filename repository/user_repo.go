package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/models"
)

const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// OAuthProfile is what a provider tells us about the person signing in.
type OAuthProfile struct {
	Provider      string
	ProviderID    string
	Email         string
	EmailVerified bool // the provider vouches that the person controls Email
	FirstName     string
	LastName      string
	Avatar        string
}

type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}

type UserPage struct {
	Users   []models.User `json:"users"`
	Total   int64         `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"hasMore"`
}

// ProfileUpdate is what users may change about themselves.
type ProfileUpdate struct {
	FirstName *string         `json:"firstName"`
	LastName  *string         `json:"lastName"`
	Phone     *string         `json:"phone"`
	Address   *models.Address `json:"address"`
}

// AdminUserUpdate is what admins may change about any account.
type AdminUserUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"isActive"`
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).
		Error
	return count > 0, err
}

// Create inserts a user. Password must already be hashed.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if !ValidateEmail(user.Email) {
		return invalid("email", "a valid email is required")
	}
	if user.Password == "" && !user.HasOAuth() {
		return invalid("password", "password or oauth provider is required")
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if user.Role != models.RoleCustomer && user.Role != models.RoleAdmin {
		return invalid("role", "unknown role")
	}

	taken, err := r.emailTaken(ctx, user.Email)
	if err != nil {
		return err
	}
	if taken {
		return duplicate("email", "user with this email already exists")
	}
	user.ID = 0
	user.IsActive = true
	user.HasLocalPassword = user.Password != ""
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// IssueVerification gives the user a fresh verification token valid for ttl.
func (r *UserRepository) IssueVerification(ctx context.Context, user *models.User, ttl time.Duration) error {
	expires := time.Now().Add(ttl)
	user.VerificationToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	user.VerificationExpires = &expires
	return r.Save(ctx, user)
}

// Verify marks the owner of token as verified.
func (r *UserRepository) Verify(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invalid("token", "verification token is required")
	}
	var user models.User
	err := r.db.WithContext(ctx).
		Where("verification_token = ?", token).
		First(&user).
		Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return nil, invalid("token", "invalid verification token")
		}
		return nil, err
	}
	if user.VerificationExpires != nil && now.After(*user.VerificationExpires) {
		return nil, invalid("token", "verification token has expired")
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil
	if err := r.Save(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).
		Error
}

func (r *UserRepository) SetPassword(ctx context.Context, id uint, plain string) error {
	hashed, err := HashPassword(plain)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"password": hashed, "has_local_password": true}).
		Error
}

func (r *UserRepository) SetAvatar(ctx context.Context, id uint, avatar string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("avatar", avatar).
		Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) (*models.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Address != nil {
		user.Address = *upd.Address
	}
	if err := r.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) AdminUpdate(ctx context.Context, id uint, upd AdminUserUpdate) (*models.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Role != nil {
		if *upd.Role != models.RoleCustomer && *upd.Role != models.RoleAdmin {
			return nil, invalid("role", "unknown role")
		}
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if err := r.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) (*UserPage, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	scope := func(db *gorm.DB) *gorm.DB {
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := containsPattern(search)
			db = db.Where(anyLike("email", "first_name", "last_name"), pattern, pattern, pattern)
		}
		if filter.Role != "" {
			db = db.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("id DESC").
		Limit(limit + 1).
		Offset(offset).
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset, HasMore: hasMore}, nil
}

// Delete removes the user and every order they own.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteUnverifiedExpired removes local accounts whose verification window closed before now.
func (r *UserRepository) DeleteUnverifiedExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_verified = ? AND verification_expires IS NOT NULL AND verification_expires < ?", false, now).
		Where("google_id IS NULL AND facebook_id IS NULL").
		Delete(&models.User{})
	return result.RowsAffected, result.Error
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case ProviderGoogle:
		return "google_id", nil
	case ProviderFacebook:
		return "facebook_id", nil
	}
	return "", invalid("provider", "unsupported oauth provider")
}

func setProviderID(user *models.User, provider, id string) {
	switch provider {
	case ProviderGoogle:
		user.GoogleID = &id
	case ProviderFacebook:
		user.FacebookID = &id
	}
}

// FindOrCreateOAuth resolves an OAuth login: by provider id, then by email (linking the
// provider to the existing account when the provider vouches for the email), else a new
// customer is created, verified only if the provider verified the email.
// created reports whether a new account was made. Deactivated accounts yield ErrForbidden.
func (r *UserRepository) FindOrCreateOAuth(ctx context.Context, profile OAuthProfile) (user *models.User, created bool, err error) {
	column, err := providerColumn(profile.Provider)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(profile.ProviderID) == "" {
		return nil, false, invalid("providerId", "provider id is required")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where(column+" = ?", profile.ProviderID).First(&existing).Error
		if err == nil {
			user = &existing
			return nil
		}
		if translate(err) != ErrNotFound {
			return err
		}

		email := normalizeEmail(profile.Email)
		if email != "" {
			err = tx.Where("email = ?", email).First(&existing).Error
			if err == nil && !profile.EmailVerified {
				return duplicate("email", "an account with this email already exists, sign in with your password first")
			}
			if err == nil {
				setProviderID(&existing, profile.Provider, profile.ProviderID)
				existing.IsVerified = true
				if existing.Avatar == "" {
					existing.Avatar = profile.Avatar
				}
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				user = &existing
				return nil
			}
			if translate(err) != ErrNotFound {
				return err
			}
		}

		if !ValidateEmail(email) {
			return invalid("email", "oauth provider did not return a usable email")
		}

		// a random hash nobody knows, so password login can never match
		sentinel, err := HashPassword(uuid.NewString())
		if err != nil {
			return err
		}
		fresh := models.User{
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			Email:      email,
			Password:   sentinel,
			Avatar:     profile.Avatar,
			Role:       models.RoleCustomer,
			IsActive:   true,
			IsVerified: profile.EmailVerified,
		}
		setProviderID(&fresh, profile.Provider, profile.ProviderID)
		if err := tx.Create(&fresh).Error; err != nil {
			return translate(err)
		}
		user = &fresh
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !user.IsActive {
		return nil, false, ErrForbidden
	}
	return user, created, nil
}
