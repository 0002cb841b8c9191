package models

type User struct {
	BaseModel
	Email            string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string   `gorm:"not null" json:"-"`
	Role             UserRole `gorm:"type:varchar(20);not null;default:'CLIENT'" json:"role"`
	TwoFactorEnabled bool     `gorm:"default:false" json:"twoFactorEnabled"`
	TwoFactorSecret  *string  `json:"-"` // base32, заполняется при enable, подтверждается verify-setup

	// Relations - у пользователя в любой зафиксированный момент
	// существует ровно один профиль, соответствующий Role
	ClientProfile   *ClientProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"clientProfile,omitempty"`
	EmployeeProfile *EmployeeProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"employeeProfile,omitempty"`
	SupplierProfile *SupplierProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"supplierProfile,omitempty"`
	DriverProfile   *DriverProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"driverProfile,omitempty"`
	AdminProfile    *AdminProfile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"adminProfile,omitempty"`

	RefreshSessions []RefreshSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TrustedDevices  []TrustedDevice  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BackupCodes     []BackupCode     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// ActiveProfileContacts возвращает контактные поля текущего профиля.
// Используется координатором смены роли как значения по умолчанию.
func (u *User) ActiveProfileContacts() (name, phone, address string) {
	switch {
	case u.ClientProfile != nil:
		return u.ClientProfile.Name, u.ClientProfile.Phone, u.ClientProfile.Address
	case u.EmployeeProfile != nil:
		return u.EmployeeProfile.Name, u.EmployeeProfile.Phone, u.EmployeeProfile.Address
	case u.SupplierProfile != nil:
		return u.SupplierProfile.ContactPerson, u.SupplierProfile.Phone, u.SupplierProfile.Address
	case u.DriverProfile != nil:
		return u.DriverProfile.Name, u.DriverProfile.Phone, u.DriverProfile.Address
	case u.AdminProfile != nil:
		return u.AdminProfile.Name, u.AdminProfile.Phone, u.AdminProfile.Address
	}
	return "", "", ""
}
