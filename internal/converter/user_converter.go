package converter

import (
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

// UserToSummary converts a User entity to the display fields embedded in other responses
func UserToSummary(user *entity.User) *dto.PersonSummary {
	if user == nil || user.ID == uuid.Nil {
		return nil
	}

	return &dto.PersonSummary{
		ID:       user.ID,
		FullName: user.FullName(),
		Email:    user.Email,
	}
}
