package model

import "time"

// Task assigns a vehicle to a driver. IsReturn mirrors EndTime != nil and
// is stored so it can be filtered on.
type Task struct {
	Base       `bson:",inline"`
	CarID      *string    `bson:"car_id" gorm:"column:car_id;type:uuid;index"`
	DriverID   *string    `bson:"driver_id" gorm:"column:driver_id;type:uuid;index"`
	StartTime  *time.Time `bson:"start_time" gorm:"column:start_time"`
	EndTime    *time.Time `bson:"end_time" gorm:"column:end_time"`
	DiskNumber string     `bson:"disk_number" gorm:"column:disk_number"`
	IsReturn   bool       `bson:"is_return" gorm:"column:is_return;not null;default:false;index"`
}

func (Task) TableName() string { return "tasks" }

// SyncReturned recomputes IsReturn from EndTime.
func (t *Task) SyncReturned() {
	t.IsReturn = t.EndTime != nil
}
