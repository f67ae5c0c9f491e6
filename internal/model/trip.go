package model

import "time"

type Trip struct {
	Base       `bson:",inline"`
	CarID      *string    `bson:"car_id" gorm:"column:car_id;type:uuid;index"`
	DriverID   *string    `bson:"driver_id" gorm:"column:driver_id;type:uuid;index"`
	StartTime  *time.Time `bson:"start_time" gorm:"column:start_time"`
	EndTime    *time.Time `bson:"end_time" gorm:"column:end_time"`
	DiskNumber string     `bson:"disk_number" gorm:"column:disk_number"`
}

func (Trip) TableName() string { return "trips" }
