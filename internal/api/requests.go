package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/glglak/elastic-personalization-poc/internal/api/validate"
	"github.com/glglak/elastic-personalization-poc/internal/model"
)

const maxBodyBytes = 1 << 20

type createUserRequest struct {
	UserID      string   `json:"userId,omitempty" validate:"omitempty,max=64"`
	Username    string   `json:"username" validate:"required,max=64"`
	Email       string   `json:"email" validate:"required,email,max=320"`
	Preferences []string `json:"preferences,omitempty" validate:"dive,required"`
	Interests   []string `json:"interests,omitempty" validate:"dive,required"`
}

type contentRequest struct {
	ContentID   string   `json:"contentId,omitempty" validate:"omitempty,max=64"`
	CreatorID   string   `json:"creatorId" validate:"required"`
	Title       string   `json:"title" validate:"required,max=300"`
	Description string   `json:"description" validate:"max=2000"`
	Body        string   `json:"body"`
	ContentType string   `json:"contentType" validate:"max=64"`
	Categories  []string `json:"categories" validate:"dive,required"`
	Tags        []string `json:"tags" validate:"dive,required"`
}

type updateContentRequest struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Description string   `json:"description" validate:"max=2000"`
	Body        string   `json:"body"`
	ContentType string   `json:"contentType" validate:"max=64"`
	Categories  []string `json:"categories" validate:"dive,required"`
	Tags        []string `json:"tags" validate:"dive,required"`
}

type contentInteractionRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ContentID string `json:"contentId" validate:"required"`
}

type commentRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ContentID string `json:"contentId" validate:"required"`
	Text      string `json:"text" validate:"required,max=5000"`
}

type followRequest struct {
	UserID         string `json:"userId" validate:"required"`
	FollowedUserID string `json:"followedUserId" validate:"required"`
}

type preferenceRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Preference string `json:"preference" validate:"required,max=100"`
}

type interestRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Interest string `json:"interest" validate:"required,max=100"`
}

type scoreResponse struct {
	UserID    string  `json:"userId"`
	ContentID string  `json:"contentId"`
	Score     float64 `json:"score"`
}

type ensureIndexResponse struct {
	Created bool `json:"created"`
}

type reindexResponse struct {
	Indexed int `json:"indexed"`
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", model.ErrValidation)
	}
	return validate.Struct(dst)
}
