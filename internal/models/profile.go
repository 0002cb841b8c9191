package models

// Профили ролей. Каждая роль - отдельная таблица с уникальным user_id,
// а не одна таблица с nullable-колонками: обязательность полей
// (position, companyName и т.д.) обеспечивается схемой per-роль.

type ClientProfile struct {
	BaseModel
	UserID  string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Name    string `gorm:"not null" json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type EmployeeProfile struct {
	BaseModel
	UserID   string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Name     string `gorm:"not null" json:"name"`
	Phone    string `json:"phone"`
	Position string `gorm:"not null" json:"position"`
	Address  string `json:"address"`
}

type SupplierProfile struct {
	BaseModel
	UserID        string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	CompanyName   string `gorm:"not null" json:"companyName"`
	ContactPerson string `gorm:"not null" json:"contactPerson"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	INN           *string `gorm:"column:inn;uniqueIndex" json:"inn,omitempty"`
	OGRN          *string `gorm:"column:ogrn;uniqueIndex" json:"ogrn,omitempty"`
	BankAccount   *string `json:"bankAccount,omitempty"`
	BIK           *string `gorm:"column:bik" json:"bik,omitempty"`
}

type DriverProfile struct {
	BaseModel
	UserID  string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Name    string `gorm:"not null" json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	Districts []District `gorm:"many2many:driver_districts;" json:"districts,omitempty"`
}

type AdminProfile struct {
	BaseModel
	UserID       string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Name         string `gorm:"not null" json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	IsSuperAdmin bool   `gorm:"default:false" json:"isSuperAdmin"`
}

// District - район доставки, привязывается к водителям
type District struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
