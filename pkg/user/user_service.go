package user

import (
	"context"
	"errors"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)

		Subscribe(ctx context.Context, userID, authorID string) error
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string) (domain.SubscriptionsResponse, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	emailTaken, err := s.userRepository.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if emailTaken {
		return domain.UserResponse{}, domain.ErrEmailTaken
	}

	usernameTaken, err := s.userRepository.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if usernameTaken {
		return domain.UserResponse{}, domain.ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user := &entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
		CreatedAt: time.Now(),
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailTaken
		}
		return domain.UserResponse{}, err
	}

	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), domain.RoleUser)
	return domain.LoginResponse{Token: token}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID string) error {
	subscriberUUID, authorUUID, err := s.parseSubscriptionIDs(userID, authorID)
	if err != nil {
		return err
	}
	if subscriberUUID == authorUUID {
		return domain.ErrSelfSubscription
	}

	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.userRepository.CreateSubscription(ctx, subscriberUUID, authorUUID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	subscriberUUID, authorUUID, err := s.parseSubscriptionIDs(userID, authorID)
	if err != nil {
		return err
	}

	removed, err := s.userRepository.DeleteSubscription(ctx, subscriberUUID, authorUUID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string) (domain.SubscriptionsResponse, error) {
	authors, count, err := s.userRepository.GetSubscribedAuthors(ctx, userID)
	if err != nil {
		return domain.SubscriptionsResponse{}, err
	}

	res := domain.SubscriptionsResponse{
		Authors: make([]domain.UserResponse, 0, len(authors)),
		Total:   count,
	}
	for _, author := range authors {
		res.Authors = append(res.Authors, toUserResponse(author))
	}
	return res, nil
}

func (s *userService) parseSubscriptionIDs(userID, authorID string) (uuid.UUID, uuid.UUID, error) {
	subscriberUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	return subscriberUUID, authorUUID, nil
}

func toUserResponse(user *entities.User) domain.UserResponse {
	return domain.UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarURL,
	}
}
