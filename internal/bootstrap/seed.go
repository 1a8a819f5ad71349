package bootstrap

import (
	"log"

	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleStaff, Description: "Platform staff"},
		{Name: entity.RoleStudent, Description: "Student or alumni"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedStaffUser creates a development staff account. Only wired in when
// APP_ENV is development.
func SeedStaffUser(db *gorm.DB, cfg *config.Config) error {
	var staffRole entity.Role
	if err := db.Where("name = ?", entity.RoleStaff).First(&staffRole).Error; err != nil {
		return err
	}

	staffEmail := "staff" + cfg.CollegeDomain

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", staffEmail).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Staff user already exists, skipping seed")
		return nil
	}

	password := "staff12345"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staffUser := entity.User{
		Username:     "staff",
		Email:        staffEmail,
		FullName:     "Platform Staff",
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &staffRole.ID,
	}

	if err := db.Create(&staffUser).Error; err != nil {
		return err
	}

	staffProfile := entity.Profile{
		UserID: staffUser.ID,
	}

	if err := db.Create(&staffProfile).Error; err != nil {
		return err
	}

	log.Println("Staff user seeded successfully")
	log.Printf("   Username: %s", staffUser.Username)
	log.Printf("   Password: %s", password)

	return nil
}
