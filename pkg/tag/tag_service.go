package tag

import (
	"context"
	"errors"
	"regexp"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type (
	TagService interface {
		GetTag(ctx context.Context, id string) (domain.TagResponse, error)
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.CreateTagRequest) (domain.TagResponse, error)
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func (s *tagService) GetTag(ctx context.Context, id string) (domain.TagResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.TagResponse{}, domain.ErrParseUUID
	}

	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}

	return toTagResponse(tag), nil
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]domain.TagResponse, 0, len(tags))
	for _, tag := range tags {
		res = append(res, toTagResponse(tag))
	}
	return res, nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.CreateTagRequest) (domain.TagResponse, error) {
	if !slugPattern.MatchString(req.Slug) {
		return domain.TagResponse{}, domain.ErrInvalidSlug
	}

	exists, err := s.tagRepository.ExistsByNameOrSlug(ctx, req.Name, req.Slug)
	if err != nil {
		return domain.TagResponse{}, err
	}
	if exists {
		return domain.TagResponse{}, domain.ErrTagConflict
	}

	tag := &entities.Tag{
		ID:   uuid.New(),
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := s.tagRepository.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.TagResponse{}, domain.ErrTagConflict
		}
		return domain.TagResponse{}, err
	}

	return toTagResponse(tag), nil
}

func toTagResponse(tag *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:   tag.ID.String(),
		Name: tag.Name,
		Slug: tag.Slug,
	}
}
