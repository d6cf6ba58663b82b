package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
)

type TagService interface {
	GetUserTags(ctx context.Context, userID string) ([]models.Tag, error)
	// AddTag returns the user's tag with this name, creating it if needed.
	// created reports whether a new tag was inserted.
	AddTag(ctx context.Context, userID string, in models.TagInput) (tag *models.Tag, created bool, err error)
	UpdateTag(ctx context.Context, userID, tagID string, patch models.TagPatch) error
	DeleteTag(ctx context.Context, userID, tagID string) error
}

type tagServiceImpl struct {
	tagRepo repositories.TagRepository
}

func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &tagServiceImpl{tagRepo: tagRepo}
}

func (s *tagServiceImpl) GetUserTags(ctx context.Context, userID string) ([]models.Tag, error) {
	log.Debug().Str("userID", userID).Msg("Attempting to retrieve user tags")

	tags, err := s.tagRepo.FindByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error retrieving user tags")
		return nil, err
	}
	log.Debug().Str("userID", userID).Int("count", len(tags)).Msg("Successfully retrieved user tags")
	return tags, nil
}

func (s *tagServiceImpl) AddTag(ctx context.Context, userID string, in models.TagInput) (*models.Tag, bool, error) {
	log.Debug().Str("userID", userID).Str("tagName", in.Name).Msg("Attempting to add tag")
	if strings.TrimSpace(in.Name) == "" {
		log.Warn().Str("userID", userID).Msg("Tag name is required")
		return nil, false, invalid("name is required")
	}

	tag, created, err := s.tagRepo.FindOrCreate(ctx, userID, in.Name, in.ColorOrDefault())
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("tagName", in.Name).Msg("Failed to add tag")
		return nil, false, err
	}

	if created {
		metrics.TagCreatedTotal.Inc()
		log.Info().Str("userID", userID).Str("tagID", tag.ID).Str("tagName", tag.Name).Msg("Tag added successfully")
	} else {
		metrics.TagReusedTotal.Inc()
		log.Debug().Str("userID", userID).Str("tagID", tag.ID).Str("tagName", tag.Name).Msg("Tag already exists, returning it")
	}
	return tag, created, nil
}

// UpdateTag renames or recolors a tag. A tag the user does not own is left alone without error.
func (s *tagServiceImpl) UpdateTag(ctx context.Context, userID, tagID string, patch models.TagPatch) error {
	log.Debug().Str("userID", userID).Str("tagID", tagID).Msg("Attempting to update tag")

	if patch.IsEmpty() {
		log.Warn().Str("userID", userID).Str("tagID", tagID).Msg("No valid fields provided for tag update")
		return invalid("no valid fields provided for update")
	}

	fields := map[string]interface{}{}
	if patch.Name.Set {
		if patch.Name.Value == nil || strings.TrimSpace(*patch.Name.Value) == "" {
			return invalid("name cannot be empty")
		}
		fields["name"] = *patch.Name.Value
	}
	if patch.Color.Set {
		fields["color"] = valueOrNil(patch.Color.Value)
	}
	fields["updated_at"] = now()

	matched, err := s.tagRepo.Update(ctx, userID, tagID, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			log.Warn().Str("userID", userID).Str("tagID", tagID).Msg("Tag name already exists for this user")
			return translate(err, "tag name")
		}
		log.Error().Err(err).Str("userID", userID).Str("tagID", tagID).Msg("Error updating tag")
		return err
	}

	if matched == 0 {
		log.Warn().Str("userID", userID).Str("tagID", tagID).Msg("Tag not found or not owned by user, nothing updated")
		return nil
	}
	log.Info().Str("userID", userID).Str("tagID", tagID).Msg("Tag updated successfully")
	return nil
}

// DeleteTag removes the tag and its bookmark links. Deleting a missing tag succeeds.
func (s *tagServiceImpl) DeleteTag(ctx context.Context, userID, tagID string) error {
	log.Debug().Str("userID", userID).Str("tagID", tagID).Msg("Attempting to delete tag")

	deleted, err := s.tagRepo.Delete(ctx, userID, tagID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("tagID", tagID).Msg("Error deleting tag")
		return err
	}
	if deleted == 0 {
		log.Warn().Str("userID", userID).Str("tagID", tagID).Msg("Tag not found or not owned by user, nothing deleted")
		return nil
	}
	log.Info().Str("userID", userID).Str("tagID", tagID).Msg("Tag deleted successfully")
	return nil
}
