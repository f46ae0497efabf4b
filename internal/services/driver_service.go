package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/repositories"
)

type DriverService struct {
	Drivers repositories.DriverRepo
	DB      *sql.DB
	Now     func() time.Time
}

func (s DriverService) drivers() repositories.DriverRepo {
	if s.Drivers.DB != nil {
		return s.Drivers
	}
	db := s.DB
	if db == nil {
		db = intconfig.DB
	}
	return repositories.DriverRepo{DB: db}
}

func (s DriverService) List(ctx context.Context) ([]models.Driver, error) {
	return s.drivers().List(ctx)
}

func (s DriverService) Create(ctx context.Context, in models.DriverInput) (models.Driver, error) {
	d := models.Driver{
		Name:                 strings.TrimSpace(in.Name),
		PhoneNumber:          strings.TrimSpace(in.PhoneNumber),
		Email:                strings.TrimSpace(in.Email),
		LicenseNumber:        strings.TrimSpace(in.LicenseNumber),
		VehicleInfo:          strings.TrimSpace(in.VehicleInfo),
		TelegramChatID:       strings.TrimSpace(in.TelegramChatID),
		NotificationsEnabled: true,
	}
	if in.NotificationsEnabled != nil {
		d.NotificationsEnabled = *in.NotificationsEnabled
	}
	switch {
	case d.Name == "":
		return models.Driver{}, domain.ValidationError{Field: "name", Msg: "nom requis"}
	case !models.PhonePattern.MatchString(d.PhoneNumber):
		return models.Driver{}, domain.ValidationError{Field: "phone_number", Msg: "numéro de téléphone invalide"}
	case d.Email == "":
		return models.Driver{}, domain.ValidationError{Field: "email", Msg: "email requis"}
	case d.LicenseNumber == "":
		return models.Driver{}, domain.ValidationError{Field: "license_number", Msg: "numéro de permis requis"}
	case d.VehicleInfo == "":
		return models.Driver{}, domain.ValidationError{Field: "vehicle_info", Msg: "véhicule requis"}
	}

	d.CreatedAt = time.Now().UTC()
	if s.Now != nil {
		d.CreatedAt = s.Now().UTC()
	}
	return s.drivers().Create(ctx, d)
}
