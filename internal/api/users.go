package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

type userView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Age           int       `json:"age,omitempty"`
	MaritalStatus string    `json:"marital_status,omitempty"`
	Segment       string    `json:"segment,omitempty"`
	Region        string    `json:"region,omitempty"`
	Nationality   string    `json:"nationality,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func viewUser(u storage.User) userView {
	return userView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Gender:        u.Gender,
		Age:           u.Age,
		MaritalStatus: u.MaritalStatus,
		Segment:       u.Segment,
		Region:        u.Region,
		Nationality:   u.Nationality,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// profileFor maps account demographics to the profile fed into design
// personalization.
func profileFor(u storage.User) jewelry.Profile {
	return jewelry.Profile{
		Name:          u.Name,
		Gender:        u.Gender,
		Age:           u.Age,
		MaritalStatus: u.MaritalStatus,
		Segment:       u.Segment,
		Region:        u.Region,
		Nationality:   u.Nationality,
	}
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, viewUser(user))
}

type updateUserRequest struct {
	Name          *string `json:"name"`
	Password      *string `json:"password"`
	Gender        *string `json:"gender"`
	Age           *int    `json:"age"`
	MaritalStatus *string `json:"marital_status"`
	Segment       *string `json:"segment"`
	Region        *string `json:"region"`
	Nationality   *string `json:"nationality"`
}

func (s *server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.MaritalStatus != nil {
		user.MaritalStatus = *req.MaritalStatus
	}
	if req.Segment != nil {
		user.Segment = *req.Segment
	}
	if req.Region != nil {
		user.Region = *req.Region
	}
	if req.Nationality != nil {
		user.Nationality = *req.Nationality
	}
	if err := validateDemographics(user.Gender, user.MaritalStatus, user.Segment, user.Region); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}

	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "password must be at least %d characters", minPasswordLength)
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "hashing password: %v", err)
			return
		}
		user.HashedPassword = string(hashed)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(user); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "updating user: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, viewUser(user))
}

func validateDemographics(gender, maritalStatus, segment, region string) error {
	if err := oneOf("gender", gender, "male", "female", "other"); err != nil {
		return err
	}
	if err := oneOf("marital_status", maritalStatus, "single", "married", "engaged"); err != nil {
		return err
	}
	if err := oneOf("segment", segment, "economic", "middle", "premium", "luxury"); err != nil {
		return err
	}
	return oneOf("region", region, "north", "central", "south", "foreign")
}

func oneOf(field, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, must be one of %v", field, value, allowed)
}
