package entity

// CapacityRule caps how many appointments a weekday accepts
type CapacityRule struct {
	DayName  string `gorm:"column:day_name;type:varchar(16);primaryKey" json:"day_name"`
	Capacity int    `gorm:"not null;default:0" json:"capacity"`
}

func (CapacityRule) TableName() string {
	return "daily_capacity"
}
