package cache

import (
	"context"

	"clinic-backend/config"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DoctorProfileCache decorates a DoctorProfileRepository with an expirable LRU over
// FindByUserID. Profile edits must call Invalidate. A disabled cache passes through.
type DoctorProfileCache struct {
	repository.DoctorProfileRepository
	cache *expirable.LRU[uuid.UUID, *entity.DoctorProfile]
	log   *logrus.Logger
}

func NewDoctorProfileCache(inner repository.DoctorProfileRepository, cfg config.CacheConfig, log *logrus.Logger) *DoctorProfileCache {
	c := &DoctorProfileCache{DoctorProfileRepository: inner, log: log}
	if !cfg.Enabled || cfg.Size <= 0 {
		log.Info("Doctor profile cache is disabled")
		return c
	}
	c.cache = expirable.NewLRU[uuid.UUID, *entity.DoctorProfile](cfg.Size, nil, cfg.TTL)
	return c
}

func (c *DoctorProfileCache) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	if c.cache == nil {
		return c.DoctorProfileRepository.FindByUserID(ctx, db, userID)
	}

	if profile, ok := c.cache.Get(userID); ok {
		c.log.Debugf("doctor profile cache hit: %s", userID)
		return profile, nil
	}

	profile, err := c.DoctorProfileRepository.FindByUserID(ctx, db, userID)
	if err != nil || profile == nil {
		return profile, err
	}
	c.cache.Add(userID, profile)
	return profile, nil
}

// Invalidate drops the cached profile of doctorID.
func (c *DoctorProfileCache) Invalidate(doctorID uuid.UUID) {
	if c.cache == nil {
		return
	}
	c.cache.Remove(doctorID)
}
