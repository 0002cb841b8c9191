package repositories

import (
	"iceberg_backend/internal/models"

	"gorm.io/gorm"
)

// DistrictRepository определяет операции над районами доставки
type DistrictRepository interface {
	// FindByIDs возвращает районы по списку id
	FindByIDs(db *gorm.DB, ids []string) ([]models.District, error)
}

type districtRepository struct{}

// NewDistrictRepository создает новый экземпляр DistrictRepository
func NewDistrictRepository() DistrictRepository {
	return &districtRepository{}
}

func (r *districtRepository) FindByIDs(db *gorm.DB, ids []string) ([]models.District, error) {
	var districts []models.District
	if len(ids) == 0 {
		return districts, nil
	}
	err := db.Where("id IN ?", ids).Find(&districts).Error
	return districts, err
}
