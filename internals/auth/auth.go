package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/pkg/kvstore"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrMissingFields      = errors.New("user name, mail id and password are required")
	ErrInvalidToken       = errors.New("invalid token")
)

const defaultProfilePic = "default.jpg"

type AuthService struct {
	KV     kvstore.KVStore
	DB     *gorm.DB
	secret []byte
	ttl    time.Duration
}

func New(kv kvstore.KVStore, db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		KV:     kv,
		DB:     db,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// sessionKey names the KV list of live tokens of a user, one per device.
func sessionKey(userID int) string {
	return fmt.Sprintf("session_token_%d", userID)
}

// Login checks the password and whitelists a fresh token for the user.
func (a *AuthService) Login(ctx context.Context, loginDetails LoginRequestBody) (string, error) {
	var user Users
	err := a.DB.WithContext(ctx).Where("user_name = ?", strings.TrimSpace(loginDetails.UserName)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDetails.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := a.GenerateToken(user.UserID)
	if err != nil {
		return "", err
	}
	if err := a.KV.RPush(sessionKey(user.UserID), token); err != nil {
		return "", err
	}
	return token, nil
}

func (a *AuthService) GenerateToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(a.ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

// ValidateToken returns the user id of a signed, unexpired token.
func (a *AuthService) ValidateToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return int(userID), nil
}

// RevokeToken drops the token from the whitelist so it stops working before
// it expires.
func (a *AuthService) RevokeToken(userID int, tokenString string) error {
	return a.KV.LRem(sessionKey(userID), 0, tokenString)
}

func (a *AuthService) CheckIfTokenIsWhiteListed(userID int, tokenString string) bool {
	tokens, err := a.KV.LRange(sessionKey(userID), 0, -1)
	if err != nil {
		return false
	}
	for _, t := range tokens {
		if t == tokenString {
			return true
		}
	}
	return false
}

func (a *AuthService) Logout(userID int, tokenString string) error {
	return a.RevokeToken(userID, tokenString)
}

func (a *AuthService) SignUp(ctx context.Context, signUpDetails SignUpRequestBody) (Users, error) {
	username := strings.TrimSpace(signUpDetails.UserName)
	mailID := strings.ToLower(strings.TrimSpace(signUpDetails.MailID))
	if username == "" || mailID == "" || signUpDetails.Password == "" {
		return Users{}, ErrMissingFields
	}

	var count int64
	err := a.DB.WithContext(ctx).Model(&Users{}).
		Where("mail_id = ? OR user_name = ?", mailID, username).
		Count(&count).Error
	if err != nil {
		return Users{}, err
	}
	if count > 0 {
		return Users{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(signUpDetails.Password), bcrypt.DefaultCost)
	if err != nil {
		return Users{}, fmt.Errorf("error hashing password: %w", err)
	}
	user := Users{
		UserName:   username,
		MailID:     mailID,
		Password:   string(hash),
		ProfilePic: defaultProfilePic,
	}
	if err := a.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return Users{}, fmt.Errorf("error inserting user: %w", err)
	}
	return user, nil
}
