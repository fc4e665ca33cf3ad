package main

import (
	"context"
	"fmt"
	"time"

	"clinic-backend/cmd/bootstrap"
	"clinic-backend/internal/domain/entity"
	domainRepo "clinic-backend/internal/domain/repository"
	"clinic-backend/internal/infrastructure/database"
	"clinic-backend/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var specializations = []string{
	"General Practice",
	"Cardiology",
	"Dermatology",
	"Pediatrics",
	"Neurology",
	"Orthopedics",
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake doctors and patients for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			patients, _ := cmd.Flags().GetInt("patients")

			cfg, log, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}

			db, err := database.NewPostgresConnection(cfg.DB, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			gofakeit.Seed(time.Now().UnixNano())

			s := newSeeder(db, log)
			if err := s.seedDoctors(cmd.Context(), doctors); err != nil {
				return fmt.Errorf("seed doctors: %w", err)
			}
			if err := s.seedPatients(cmd.Context(), patients); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}

			log.Info("Seed complete")
			return nil
		},
	}
	cmd.Flags().Int("doctors", 10, "number of doctors to create")
	cmd.Flags().Int("patients", 50, "number of patients to create")
	return cmd
}

type seeder struct {
	db               *gorm.DB
	log              *logrus.Logger
	userRepo         domainRepo.UserRepository
	doctorRepo       domainRepo.DoctorProfileRepository
	patientRepo      domainRepo.PatientProfileRepository
	availabilityRepo domainRepo.DoctorAvailabilityRepository
}

func newSeeder(db *gorm.DB, log *logrus.Logger) *seeder {
	return &seeder{
		db:               db,
		log:              log,
		userRepo:         repository.NewUserRepository(),
		doctorRepo:       repository.NewDoctorProfileRepository(),
		patientRepo:      repository.NewPatientProfileRepository(),
		availabilityRepo: repository.NewDoctorAvailabilityRepository(),
	}
}

// seedDoctors creates doctors open 09:00-17:00 on weekdays with a lunch break.
func (s *seeder) seedDoctors(ctx context.Context, count int) error {
	s.log.Infof("Seeding %d doctors", count)

	for i := 0; i < count; i++ {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			user := fakeUser(entity.RoleIDDoctor)
			if err := s.userRepo.Create(ctx, tx, user); err != nil {
				return err
			}

			profile := &entity.DoctorProfile{
				UserID:         user.ID,
				LicenseNumber:  gofakeit.Numerify("LIC-########"),
				Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
			}
			if err := s.doctorRepo.Create(ctx, tx, profile); err != nil {
				return err
			}

			hours := make([]entity.WorkingHour, 0, len(entity.Weekdays))
			for _, day := range entity.Weekdays {
				if day == entity.Saturday || day == entity.Sunday {
					hours = append(hours, entity.WorkingHour{DoctorID: user.ID, Day: day, IsClosed: true})
					continue
				}
				hours = append(hours, entity.WorkingHour{DoctorID: user.ID, Day: day, OpenTime: "09:00", CloseTime: "17:00"})
			}
			if err := s.availabilityRepo.ReplaceWorkingHours(ctx, tx, user.ID, hours); err != nil {
				return err
			}

			for _, day := range entity.Weekdays[:5] {
				lunch := &entity.BreakTime{DoctorID: user.ID, Day: day, StartTime: "12:00", EndTime: "13:00"}
				if err := s.availabilityRepo.CreateBreakTime(ctx, tx, lunch); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.log.Info("Doctors seeded")
	return nil
}

func (s *seeder) seedPatients(ctx context.Context, count int) error {
	s.log.Infof("Seeding %d patients", count)

	for i := 0; i < count; i++ {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			user := fakeUser(entity.RoleIDPatient)
			if err := s.userRepo.Create(ctx, tx, user); err != nil {
				return err
			}
			return s.patientRepo.Create(ctx, tx, &entity.PatientProfile{
				UserID:      user.ID,
				PhoneNumber: gofakeit.Numerify("08##########"),
				Gender:      []string{entity.GenderMale, entity.GenderFemale}[gofakeit.Number(0, 1)],
			})
		})
		if err != nil {
			return err
		}
	}

	s.log.Info("Patients seeded")
	return nil
}

func fakeUser(roleID int) *entity.User {
	return &entity.User{
		ID:        uuid.New(),
		RoleID:    roleID,
		Email:     gofakeit.Numerify("####") + "." + gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}
}
