package customers

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Input identifies the buyer on an incoming sale. Phone is the natural
// key; a customer is created on the fly when the phone is unknown.
type Input struct {
	Name  string
	Phone string
	Email string
	DNI   string
}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ResolveOrCreate finds the customer by phone or creates one on tx.
// Known customers get their contact details refreshed from the input.
func (s *Service) ResolveOrCreate(ctx context.Context, tx *gorm.DB, in Input) (*models.Customer, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, errors.New(errors.CodeValidation, "customer phone is required")
	}

	var customer models.Customer
	err := tx.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error
	if err == nil {
		updates := map[string]any{}
		if in.Name != "" && in.Name != customer.Name {
			customer.Name = in.Name
			updates["name"] = in.Name
		}
		if in.Email != "" && in.Email != customer.Email {
			customer.Email = in.Email
			updates["email"] = in.Email
		}
		if in.DNI != "" && in.DNI != customer.DNI {
			customer.DNI = in.DNI
			updates["dni"] = in.DNI
		}
		if len(updates) > 0 {
			if err := tx.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
				return nil, errors.Wrap(errors.CodeDependency, err, "update customer")
			}
		}
		return &customer, nil
	}
	if !db.IsNotFound(err) {
		return nil, errors.Wrap(errors.CodeDependency, err, "lookup customer")
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New(errors.CodeValidation, "customer name is required for new customers")
	}

	customer = models.Customer{
		Name:  in.Name,
		Phone: phone,
		Email: in.Email,
		DNI:   in.DNI,
	}
	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		if db.IsUniqueViolation(err) {
			// Concurrent create with the same phone; read the winner.
			var existing models.Customer
			if loadErr := tx.WithContext(ctx).Where("phone = ?", phone).First(&existing).Error; loadErr == nil {
				return &existing, nil
			}
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "create customer")
	}
	return &customer, nil
}
