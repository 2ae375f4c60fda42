package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionsPerVideo is the fixed number of questions every video is created with.
const QuestionsPerVideo = 3

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the stored identity record. It is never serialized to clients; use Profile.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	State        string    `json:"state"`
	District     string    `json:"district"`
	Pincode      string    `json:"pincode"`
	RefreshToken *string   `json:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile returns the public projection of the user.
func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Phone:    u.Phone,
		State:    u.State,
		District: u.District,
		Pincode:  u.Pincode,
	}
}

// Profile is the user view returned by the API.
type Profile struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone"`
	State    string `json:"state"`
	District string `json:"district"`
	Pincode  string `json:"pincode"`
}

// Answer is one user's free-text response to a question.
type Answer struct {
	UserID      string    `json:"userId"`
	AnswerText  string    `json:"answerText"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Question belongs to exactly one video and accumulates answers.
type Question struct {
	ID           string   `json:"_id"`
	QuestionText string   `json:"questionText"`
	Answers      []Answer `json:"answers"`
}

// Video references an externally hosted video and owns its questions.
type Video struct {
	ID        string     `json:"_id"`
	VideoURL  string     `json:"videoUrl"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewVideo builds a video whose questions start with empty answer lists.
// questionIDs must be parallel to texts.
func NewVideo(id, videoURL string, texts, questionIDs []string, now time.Time) (Video, error) {
	if len(texts) != QuestionsPerVideo || len(questionIDs) != len(texts) {
		return Video{}, fmt.Errorf("%w: exactly %d questions are required", ErrValidation, QuestionsPerVideo)
	}
	questions := make([]Question, len(texts))
	for i, text := range texts {
		questions[i] = Question{
			ID:           questionIDs[i],
			QuestionText: text,
			Answers:      []Answer{},
		}
	}
	return Video{
		ID:        id,
		VideoURL:  videoURL,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AppendAnswers adds answers[i] to Questions[i] for every question.
// Answers are positional; nothing is appended unless the counts match and every
// answer is non-blank.
func (v *Video) AppendAnswers(userID string, answers []string, now time.Time) error {
	if len(answers) != len(v.Questions) {
		return fmt.Errorf("%w: the number of answers (%d) does not match the number of questions (%d)",
			ErrCountMismatch, len(answers), len(v.Questions))
	}
	for i, text := range answers {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: answer %d is required", ErrValidation, i+1)
		}
	}
	for i := range v.Questions {
		v.Questions[i].Answers = append(v.Questions[i].Answers, Answer{
			UserID:      userID,
			AnswerText:  answers[i],
			SubmittedAt: now,
		})
	}
	v.UpdatedAt = now
	return nil
}
