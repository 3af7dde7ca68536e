package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
	"github.com/aruchith08/AcademiaMarket/utils"
)

// minWriterRate is the lowest per-page rate a writer account may set.
const minWriterRate = 10

type UserService struct {
	UserCollection *mongo.Collection
}

func NewUserService(userCollection *mongo.Collection) *UserService {
	return &UserService{UserCollection: userCollection}
}

// RegisterUser creates an account. The username suffix is the only role
// signal the platform has, so a username that does not carry the suffix of
// the claimed role is rejected outright.
func (s *UserService) RegisterUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))

	if user.Role != models.RoleAssigner && user.Role != models.RoleWriter {
		return models.UserProfile{}, fmt.Errorf("role must be assigner or writer")
	}
	if !models.UsernameMatchesRole(user.Username, user.Role) {
		return models.UserProfile{}, fmt.Errorf("username for role %s must end with %s", user.Role, user.Role.Suffix())
	}
	if user.Name == "" {
		return models.UserProfile{}, fmt.Errorf("full name is required")
	}
	if err := utils.ValidatePassword(user.Password); err != nil {
		return models.UserProfile{}, err
	}
	if user.Role == models.RoleWriter && user.PricePerPage < minWriterRate {
		return models.UserProfile{}, fmt.Errorf("minimum price per page is %d", minWriterRate)
	}

	var existing models.UserProfile
	if err := s.UserCollection.FindOne(ctx, bson.M{"username": user.Username}).Decode(&existing); err == nil {
		return models.UserProfile{}, fmt.Errorf("user with username already exists")
	}

	user.Name = html.EscapeString(user.Name)
	user.Bio = html.EscapeString(user.Bio)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hashedPassword)

	user.ID = primitive.NewObjectID().Hex()
	user.Rating = 0
	user.CompletedTasks = 0
	if user.Avatar == "" {
		user.Avatar = fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", user.Username)
	}
	if user.Role == models.RoleWriter {
		user.IsBusy = false
		if user.Bio == "" {
			user.Bio = "Student writer ready to help."
		}
		if len(user.Specialties) == 0 {
			user.Specialties = []string{"General"}
		}
	}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: New %s account %s created.", user.Role, user.Username)

	user.Password = ""
	return user, nil
}

// LoginUser authenticates by username and password. The stored role must
// still agree with the username suffix; a mismatched legacy document is
// rejected rather than trusted.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (models.UserProfile, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var user models.UserProfile
	err := s.UserCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		return models.UserProfile{}, "", errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.UserProfile{}, "", errors.New("invalid password")
	}

	if !models.UsernameMatchesRole(user.Username, user.Role) {
		logging.Logger.Warnf("Event ID: ROLE_SUFFIX_MISMATCH, Description: Account %s has role %s but a non-matching suffix.", user.Username, user.Role)
		return models.UserProfile{}, "", errors.New("account role does not match username suffix")
	}

	token, err := utils.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return models.UserProfile{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	user.Password = ""
	return user, token, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (models.UserProfile, error) {
	var user models.UserProfile
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("user not found")
	}
	user.Password = ""
	return user, nil
}

// GetAvailableWriters lists writers open for new work, for the assigner's
// discovery screen. Busy writers are hidden, matching their settings
// toggle.
func (s *UserService) GetAvailableWriters(ctx context.Context) ([]models.UserProfile, error) {
	filter := bson.M{"role": models.RoleWriter, "isBusy": bson.M{"$ne": true}}

	cursor, err := s.UserCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch writers: %v", err)
	}
	defer cursor.Close(ctx)

	var writers []models.UserProfile
	if err := cursor.All(ctx, &writers); err != nil {
		return nil, fmt.Errorf("failed to parse writers: %v", err)
	}

	for i := range writers {
		writers[i].Password = ""
	}
	return writers, nil
}

// WriterSettingsUpdate carries the fields a writer may change on their own
// profile.
type WriterSettingsUpdate struct {
	PricePerPage  *float64                `json:"pricePerPage,omitempty"`
	IsBusy        *bool                   `json:"isBusy,omitempty"`
	IsBargainable *bool                   `json:"isBargainable,omitempty"`
	Bio           *string                 `json:"bio,omitempty"`
	Portfolio     *[]models.PortfolioItem `json:"portfolio,omitempty"`
}

// UpdateWriterSettings applies a partial update to the caller's own writer
// profile. Profiles are exclusively owned: userID must be the profile id.
func (s *UserService) UpdateWriterSettings(ctx context.Context, userID string, update WriterSettingsUpdate) (models.UserProfile, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if user.Role != models.RoleWriter {
		return models.UserProfile{}, fmt.Errorf("only writer accounts have writer settings")
	}

	set := bson.M{}
	if update.PricePerPage != nil {
		if *update.PricePerPage < minWriterRate {
			return models.UserProfile{}, fmt.Errorf("minimum price per page is %d", minWriterRate)
		}
		set["pricePerPage"] = *update.PricePerPage
	}
	if update.IsBusy != nil {
		set["isBusy"] = *update.IsBusy
	}
	if update.IsBargainable != nil {
		set["isBargainable"] = *update.IsBargainable
	}
	if update.Bio != nil {
		set["bio"] = html.EscapeString(*update.Bio)
	}
	if update.Portfolio != nil {
		set["portfolio"] = *update.Portfolio
	}
	if len(set) == 0 {
		return user, nil
	}

	_, err = s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to update profile: %v", err)
	}

	return s.GetUserByID(ctx, userID)
}
